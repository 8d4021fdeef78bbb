package ports

import (
	"context"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
)

// BlobCodec converts between transient references and durable payloads.
//
// A transient reference is only meaningful while the process that issued it is
// alive. Materialize captures its bytes so they can be stored; Regenerate issues
// a fresh reference for stored bytes.
type BlobCodec interface {
	// IsTransient reports whether ref is a transient handle (as opposed to a
	// remote URL or an empty string).
	IsTransient(ref string) bool

	// Materialize returns the durable payload behind a transient handle.
	// Returns domain.ErrNotTransient or domain.ErrHandleNotFound on failure.
	Materialize(ctx context.Context, ref string) (*domain.Payload, error)

	// Regenerate registers payload and returns a new transient handle for it.
	Regenerate(payload domain.Payload) string

	// Revoke releases a transient handle. Unknown references are ignored.
	Revoke(ref string)
}

// MetadataResolver looks up track metadata from outside the library.
// Results may be partial; callers apply defaults.
type MetadataResolver interface {
	// Resolve looks up a single track by id or free text.
	// Returns domain.ErrNoMetadata when nothing usable was found.
	Resolve(ctx context.Context, query string) (domain.ResolvedMetadata, error)

	// Search returns candidate tracks for a free-text query.
	Search(ctx context.Context, query string) ([]domain.ResolvedMetadata, error)
}

// FileMetadataReader reads embedded tags from a file behind a transient handle.
type FileMetadataReader interface {
	ReadFile(ctx context.Context, ref string) (domain.ResolvedMetadata, error)
}
