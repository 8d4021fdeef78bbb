// Package inbox imports audio files dropped into a watched directory.
package inbox

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// ImportedDir is the subdirectory successfully imported files are moved to.
const ImportedDir = "imported"

const defaultDebounce = 500 * time.Millisecond

// Importer turns a file on disk into a library song.
type Importer interface {
	ImportFile(ctx context.Context, path string) (domain.Song, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher imports supported audio files written to a directory. Files are
// imported once writes have settled and are then moved to ImportedDir.
// Failed imports stay in place and publish an ImportFailed event.
// A file that was imported but could not be moved is not imported again
// until it is removed or renamed.
type Watcher struct {
	dir      string
	importer Importer
	bus      ports.EventBus
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	stuck   map[string]bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, importer Importer, bus ports.EventBus, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		importer: importer,
		bus:      bus,
		logger:   logger,
		debounce: defaultDebounce,
		pending:  make(map[string]time.Time),
		stuck:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start creates the directory if needed, queues files already present and
// begins watching. It returns once the watch is established.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return errors.New("inbox watcher already started")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		_ = fw.Close()
		return err
	}
	now := time.Now()
	for _, e := range entries {
		if !e.IsDir() {
			w.queueLocked(filepath.Join(w.dir, e.Name()), now)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.run(ctx, fw)

	w.logger.Info("watching inbox", slog.String("dir", w.dir))
	return nil
}

// Close stops watching and waits for an in-flight import to finish.
func (w *Watcher) Close() error {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer func() { _ = fw.Close() }()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				w.queueLocked(event.Name, time.Now())
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				delete(w.stuck, event.Name)
				delete(w.pending, event.Name)
			}
			w.mu.Unlock()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", slog.Any("error", err))
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				w.importPath(ctx, path)
			}
		}
	}
}

// queueLocked (re)starts the quiet period for path.
// Must be called with w.mu held.
func (w *Watcher) queueLocked(path string, at time.Time) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !domain.IsSupportedAudio(name) || w.stuck[path] {
		return
	}
	w.pending[path] = at.Add(w.debounce)
}

func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, deadline := range w.pending {
		if !now.Before(deadline) {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) importPath(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	song, err := w.importer.ImportFile(ctx, path)
	if err != nil {
		w.logger.Warn("inbox import failed", slog.String("file", path), slog.Any("error", err))
		w.bus.Publish(domain.NewImportFailedEvent(path, err))
		return
	}

	target := filepath.Join(w.dir, ImportedDir, filepath.Base(path))
	err = os.MkdirAll(filepath.Dir(target), 0o755)
	if err == nil {
		err = os.Rename(path, target)
	}
	if err != nil {
		w.mu.Lock()
		w.stuck[path] = true
		w.mu.Unlock()
		w.logger.Warn("imported file not moved", slog.String("file", path), slog.String("song", song.ID), slog.Any("error", err))
		return
	}
	w.logger.Info("imported from inbox", slog.String("file", filepath.Base(path)), slog.String("song", song.ID))
}
