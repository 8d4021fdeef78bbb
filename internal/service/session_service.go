// Package service provides business logic for the VibeMusic application.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// SessionService owns the signed-in user.
// All operations are thread-safe via sync.RWMutex.
type SessionService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	profiles ports.ProfileRepository
	bus      ports.EventBus

	guestEmail string
	adminEmail string

	// State
	current domain.UserProfile

	mu sync.RWMutex
}

// NewSessionService creates a session that starts as the guest.
func NewSessionService(
	logger *slog.Logger,
	profiles ports.ProfileRepository,
	bus ports.EventBus,
	guestEmail string,
	adminEmail string,
) *SessionService {
	return &SessionService{
		logger:     logger,
		profiles:   profiles,
		bus:        bus,
		guestEmail: guestEmail,
		adminEmail: adminEmail,
		current:    domain.GuestProfile(guestEmail),
	}
}

// Restore loads the last active profile. Without one, the guest profile is
// persisted and becomes active.
func (s *SessionService) Restore(ctx context.Context) domain.UserProfile {
	profile, ok := s.profiles.LoadActiveProfile(ctx)
	if !ok {
		guest := domain.GuestProfile(s.guestEmail)
		s.profiles.SaveProfile(ctx, guest)
		profile = &guest
	}

	s.mu.Lock()
	previous := s.current.Email
	s.current = *profile
	s.mu.Unlock()

	s.logger.Info("session restored", slog.String("email", profile.Email), slog.Bool("guest", !ok))
	s.bus.Publish(domain.NewSessionChangedEvent(*profile, previous))
	return *profile
}

// Current returns the active profile.
func (s *SessionService) Current() domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Email returns the owner key of the active profile.
func (s *SessionService) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Email
}

func (s *SessionService) IsAdmin() bool {
	return s.adminEmail != "" && s.Email() == s.adminEmail
}

func (s *SessionService) IsGuest() bool {
	return s.Email() == s.guestEmail
}

// UpdateProfile makes profile the active session and persists it.
// The caller re-hydrates per-user state afterwards.
func (s *SessionService) UpdateProfile(ctx context.Context, profile domain.UserProfile) error {
	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Email == "" {
		return domain.NewValidationError("email", profile.Email, "email is required")
	}
	if profile.Name = strings.TrimSpace(profile.Name); profile.Name == "" {
		profile.Name = profile.Email
	}
	if profile.ProfileImage == "" {
		profile.ProfileImage = domain.DefaultProfileImage
	}

	s.mu.Lock()
	previous := s.current.Email
	s.current = profile
	s.mu.Unlock()

	s.bus.Publish(domain.NewSessionChangedEvent(profile, previous))

	if !s.profiles.SaveProfile(ctx, profile) {
		return domain.NewServiceError("SessionService", "UpdateProfile", "profile not persisted", domain.ErrStorageUnavailable)
	}
	return nil
}

// Logout clears the active session marker and switches to the guest.
// Per-user data stays in storage.
func (s *SessionService) Logout(ctx context.Context) domain.UserProfile {
	s.profiles.ClearActiveSession(ctx)

	guest := domain.GuestProfile(s.guestEmail)
	s.mu.Lock()
	previous := s.current.Email
	s.current = guest
	s.mu.Unlock()

	s.logger.Info("logged out", slog.String("email", previous))
	s.bus.Publish(domain.NewSessionChangedEvent(guest, previous))
	return guest
}

// Flush saves the active profile, which also marks it active.
func (s *SessionService) Flush(ctx context.Context) bool {
	return s.profiles.SaveProfile(ctx, s.Current())
}
