package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// DefaultAutosaveInterval is how often in-memory state is written back.
const DefaultAutosaveInterval = 5 * time.Second

// Flusher writes in-memory state to storage and reports success.
type Flusher interface {
	Flush(ctx context.Context) bool
}

// Autosaver periodically flushes the library, playlists and profile.
type Autosaver struct {
	logger   *slog.Logger
	bus      ports.EventBus
	owner    func() string
	flushers []Flusher
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewAutosaver creates an autosaver. owner names the user being saved in
// AutosaveCompleted events. A non-positive interval uses the default.
func NewAutosaver(
	logger *slog.Logger,
	bus ports.EventBus,
	interval time.Duration,
	owner func() string,
	flushers ...Flusher,
) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Autosaver{
		logger:   logger,
		bus:      bus,
		owner:    owner,
		flushers: flushers,
		interval: interval,
	}
}

// Start launches the flush loop. It runs until Stop is called or ctx is
// cancelled. Starting twice is a no-op.
func (a *Autosaver) Start(ctx context.Context) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.stop = make(chan struct{})
	stop := a.stop
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.FlushNow(ctx)
			}
		}
	}()
	a.logger.Debug("autosave started", slog.Duration("interval", a.interval))
}

// Stop ends the flush loop and waits for an in-flight flush to finish.
// No flush runs after Stop returns.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	if a.running {
		close(a.stop)
		a.running = false
	}
	a.mu.Unlock()

	a.wg.Wait()
}

// FlushNow runs every flusher once, even when an earlier one fails.
func (a *Autosaver) FlushNow(ctx context.Context) bool {
	ok := true
	for _, f := range a.flushers {
		if !f.Flush(ctx) {
			ok = false
		}
	}

	owner := ""
	if a.owner != nil {
		owner = a.owner()
	}
	if !ok {
		a.logger.Warn("autosave incomplete", slog.String("owner", owner))
	}
	a.bus.Publish(domain.NewAutosaveCompletedEvent(owner, ok))
	return ok
}
