package blob

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewTestLogger())
}

func TestRegistry_RegisterAndMaterialize(t *testing.T) {
	r := newTestRegistry()

	handle := r.Register([]byte("audio-bytes"), "audio/mpeg")
	assert.True(t, strings.HasPrefix(handle, "blob:vibemusic/"))
	assert.True(t, r.IsTransient(handle))

	p, err := r.Materialize(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), p.Data)
	assert.Equal(t, "audio/mpeg", p.MIMEType)
}

func TestRegistry_RegisterCopiesInput(t *testing.T) {
	r := newTestRegistry()

	data := []byte("abc")
	handle := r.Register(data, "audio/mpeg")
	data[0] = 'z'

	p, err := r.Resolve(handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), p.Data)
}

func TestRegistry_DetectsMIMEType(t *testing.T) {
	r := newTestRegistry()

	p, err := r.Resolve(r.Register(pngHeader, ""))
	require.NoError(t, err)
	assert.Equal(t, "image/png", p.MIMEType)
}

func TestRegistry_RegenerateIssuesFreshHandle(t *testing.T) {
	r := newTestRegistry()

	first := r.Register([]byte("x"), "audio/ogg")
	second := r.Regenerate(domain.Payload{Data: []byte("x"), MIMEType: "audio/ogg"})

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_MaterializeErrors(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	_, err := r.Materialize(ctx, "https://example.com/song.mp3")
	assert.ErrorIs(t, err, domain.ErrNotTransient)

	_, err = r.Materialize(ctx, "blob:vibemusic/missing")
	assert.ErrorIs(t, err, domain.ErrHandleNotFound)

	handle := r.Register([]byte("x"), "audio/mpeg")
	r.Revoke(handle)
	_, err = r.Materialize(ctx, handle)
	assert.ErrorIs(t, err, domain.ErrHandleNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Materialize(cancelled, r.Register([]byte("y"), ""))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry_IsTransient(t *testing.T) {
	r := newTestRegistry()
	assert.True(t, r.IsTransient("blob:http://localhost/abc"))
	assert.False(t, r.IsTransient(""))
	assert.False(t, r.IsTransient("https://cdn.example.com/a.png"))
}
