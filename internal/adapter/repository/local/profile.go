package local

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// ProfileRepository implements ports.ProfileRepository.
// Profiles are keyed by email; "last_active_email" points at the active one.
type ProfileRepository struct {
	db     ports.DatabaseOpener
	logger *slog.Logger
}

// NewProfileRepository creates a profile repository.
func NewProfileRepository(db ports.DatabaseOpener, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// SaveProfile upserts the profile and makes it the active one.
func (r *ProfileRepository) SaveProfile(ctx context.Context, profile domain.UserProfile) bool {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("save profile skipped: storage unavailable", slog.String("email", profile.Email), slog.Any("error", err))
		return false
	}

	err = db.Update(ctx, []string{ports.CollectionProfiles, ports.CollectionMetadata}, func(tx ports.Tx) error {
		cols, err := collections(tx, ports.CollectionProfiles, ports.CollectionMetadata)
		if err != nil {
			return err
		}
		if err := putJSON(cols[0], profile.Email, profile); err != nil {
			return err
		}
		return putJSON(cols[1], KeyLastActiveEmail, profile.Email)
	})
	if err != nil {
		r.logger.Warn("save profile failed", slog.String("email", profile.Email), slog.Any("error", err))
		return false
	}
	return true
}

// LoadActiveProfile returns the profile named by the active-session marker.
func (r *ProfileRepository) LoadActiveProfile(ctx context.Context) (*domain.UserProfile, bool) {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("load active profile skipped: storage unavailable", slog.Any("error", err))
		return nil, false
	}

	var profile *domain.UserProfile
	err = db.View(ctx, []string{ports.CollectionProfiles, ports.CollectionMetadata}, func(tx ports.Tx) error {
		cols, err := collections(tx, ports.CollectionProfiles, ports.CollectionMetadata)
		if err != nil {
			return err
		}
		var email string
		if err := getJSON(cols[1], KeyLastActiveEmail, &email); err != nil {
			return err
		}
		var p domain.UserProfile
		if err := getJSON(cols[0], email, &p); err != nil {
			return err
		}
		profile = &p
		return nil
	})
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("load active profile failed", slog.Any("error", err))
		return nil, false
	}
	return profile, true
}

// LoadProfile returns the stored profile for email.
func (r *ProfileRepository) LoadProfile(ctx context.Context, email string) (*domain.UserProfile, bool) {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("load profile skipped: storage unavailable", slog.String("email", email), slog.Any("error", err))
		return nil, false
	}

	var p domain.UserProfile
	err = db.View(ctx, []string{ports.CollectionProfiles}, func(tx ports.Tx) error {
		c, err := tx.Collection(ports.CollectionProfiles)
		if err != nil {
			return err
		}
		return getJSON(c, email, &p)
	})
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("load profile failed", slog.String("email", email), slog.Any("error", err))
		return nil, false
	}
	return &p, true
}

// ClearActiveSession removes only the active-session marker.
func (r *ProfileRepository) ClearActiveSession(ctx context.Context) bool {
	db, err := r.db.Open(ctx)
	if err != nil {
		r.logger.Warn("clear session skipped: storage unavailable", slog.Any("error", err))
		return false
	}

	err = db.Update(ctx, []string{ports.CollectionMetadata}, func(tx ports.Tx) error {
		meta, err := tx.Collection(ports.CollectionMetadata)
		if err != nil {
			return err
		}
		return meta.Delete(KeyLastActiveEmail)
	})
	if err != nil {
		r.logger.Warn("clear session failed", slog.Any("error", err))
		return false
	}
	return true
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)
