// Package blob issues transient, process-local handles for binary payloads and
// converts them back into durable payloads for storage.
package blob

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// Scheme prefixes every transient reference.
const Scheme = "blob:"

const handlePrefix = Scheme + "vibemusic/"

// Registry keeps registered payloads in memory and hands out
// "blob:vibemusic/<uuid>" handles for them. Handles die with the process.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]domain.Payload
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger,
		entries: make(map[string]domain.Payload),
	}
}

// Register stores a copy of data and returns a fresh handle for it.
// When mimeType is empty it is sniffed from the content.
func (r *Registry) Register(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	handle := handlePrefix + uuid.NewString()

	r.mu.Lock()
	r.entries[handle] = domain.Payload{
		Data:     append([]byte(nil), data...),
		MIMEType: mimeType,
	}
	r.mu.Unlock()

	r.logger.Debug("handle registered",
		slog.String("handle", handle),
		slog.String("mime", mimeType),
		slog.Int("bytes", len(data)))
	return handle
}

// Resolve returns the payload behind handle.
func (r *Registry) Resolve(handle string) (domain.Payload, error) {
	r.mu.RLock()
	p, ok := r.entries[handle]
	r.mu.RUnlock()
	if !ok {
		return domain.Payload{}, fmt.Errorf("%s: %w", handle, domain.ErrHandleNotFound)
	}
	return p, nil
}

// Revoke forgets handle. Revoking an unknown handle is a no-op.
func (r *Registry) Revoke(handle string) {
	r.mu.Lock()
	delete(r.entries, handle)
	r.mu.Unlock()
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IsTransient reports whether ref uses the transient scheme.
func (r *Registry) IsTransient(ref string) bool {
	return strings.HasPrefix(ref, Scheme)
}

// Materialize captures the payload behind a transient reference.
func (r *Registry) Materialize(ctx context.Context, ref string) (*domain.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.IsTransient(ref) {
		return nil, fmt.Errorf("%q: %w", ref, domain.ErrNotTransient)
	}
	p, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &domain.Payload{
		Data:     append([]byte(nil), p.Data...),
		MIMEType: p.MIMEType,
	}, nil
}

// Regenerate issues a new handle for a stored payload.
func (r *Registry) Regenerate(payload domain.Payload) string {
	return r.Register(payload.Data, payload.MIMEType)
}

var _ ports.BlobCodec = (*Registry)(nil)
