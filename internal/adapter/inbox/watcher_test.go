package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
	"github.com/tejashwikalptaru/vibemusic/internal/testutil"
)

type fakeImporter struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeImporter) ImportFile(_ context.Context, path string) (domain.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, filepath.Base(path))
	if f.err != nil {
		return domain.Song{}, f.err
	}
	return domain.Song{ID: "song-" + filepath.Base(path)}, nil
}

func (f *fakeImporter) imported() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func newTestWatcher(t *testing.T, importer Importer) (*Watcher, *eventbus.SyncEventBus, string) {
	t.Helper()
	dir := t.TempDir()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	w := NewWatcher(dir, importer, bus, logger.NewTestLogger(), WithDebounce(20*time.Millisecond))
	return w, bus, dir
}

func TestWatcher_ImportsNewFiles(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	importer := &fakeImporter{}
	w, _, dir := newTestWatcher(t, importer)
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("audio"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.mp3"), []byte("audio"), 0o644))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, ImportedDir, "track.mp3"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"track.mp3"}, importer.imported())
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestWatcher_ImportsExistingFiles(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	importer := &fakeImporter{}
	w, _, dir := newTestWatcher(t, importer)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "already-here.flac"), []byte("audio"), 0o644))

	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	assert.Eventually(t, func() bool {
		return len(importer.imported()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"already-here.flac"}, importer.imported())
}

func TestWatcher_FailedImportStaysAndPublishes(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	importer := &fakeImporter{err: errors.New("disk on fire")}
	w, bus, dir := newTestWatcher(t, importer)

	failed := make(chan domain.ImportFailedEvent, 1)
	bus.Subscribe(domain.EventImportFailed, func(e domain.Event) {
		select {
		case failed <- e.(domain.ImportFailedEvent):
		default:
		}
	})

	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	path := filepath.Join(dir, "broken.ogg")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))

	select {
	case e := <-failed:
		assert.Equal(t, path, e.Path)
		assert.EqualError(t, e.Error, "disk on fire")
	case <-time.After(2 * time.Second):
		t.Fatal("no ImportFailed event")
	}
	assert.FileExists(t, path)
}

func TestWatcher_UnmovableFileImportedOnce(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	importer := &fakeImporter{}
	w, _, dir := newTestWatcher(t, importer)
	// A plain file where the imported directory should be makes the move fail.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ImportedDir), []byte("in the way"), 0o644))

	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	path := filepath.Join(dir, "stuck.wav")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	require.Eventually(t, func() bool {
		return len(importer.imported()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Touch the file again; it must not come back as a second song.
	require.NoError(t, os.WriteFile(path, []byte("audio, again"), 0o644))
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []string{"stuck.wav"}, importer.imported())
	assert.FileExists(t, path)
}

func TestWatcher_StartTwice(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	w, _, _ := newTestWatcher(t, &fakeImporter{})
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	w, _, _ := newTestWatcher(t, &fakeImporter{})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	require.NoError(t, w.Close())
}
