package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
)

func newTestBus() *SyncEventBus {
	return NewSyncEventBus(logger.NewTestLogger())
}

func TestSyncEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus()

	var received domain.Event
	bus.Subscribe(domain.EventSongAdded, func(e domain.Event) { received = e })

	bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "7", Title: "Track"}, "a@x"))

	require.NotNil(t, received)
	added, ok := received.(domain.SongAddedEvent)
	require.True(t, ok)
	assert.Equal(t, "7", added.Song.ID)
	assert.Equal(t, "a@x", added.Owner)
	assert.False(t, added.Timestamp().IsZero())
}

func TestSyncEventBus_DeliveryOrder(t *testing.T) {
	bus := newTestBus()

	var order []string
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventSongDeleted, func(domain.Event) { order = append(order, "first") })
	bus.Subscribe(domain.EventSongDeleted, func(domain.Event) { order = append(order, "second") })

	bus.Publish(domain.NewSongDeletedEvent("1", "a@x"))

	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestSyncEventBus_UnsubscribeKeepsOrder(t *testing.T) {
	bus := newTestBus()

	var order []string
	bus.Subscribe(domain.EventSongPlayed, func(domain.Event) { order = append(order, "a") })
	id := bus.Subscribe(domain.EventSongPlayed, func(domain.Event) { order = append(order, "b") })
	bus.Subscribe(domain.EventSongPlayed, func(domain.Event) { order = append(order, "c") })

	bus.Unsubscribe(id)
	bus.Unsubscribe("sub-unknown")
	bus.Publish(domain.NewSongPlayedEvent(domain.Song{ID: "1"}))

	assert.Equal(t, []string{"a", "c"}, order)
	assert.Equal(t, 2, bus.SubscriberCount())
}

func TestSyncEventBus_SubscribeFiltered(t *testing.T) {
	bus := newTestBus()

	var owners []string
	bus.SubscribeFiltered(domain.EventAutosaveCompleted,
		func(e domain.Event) bool { return e.(domain.AutosaveCompletedEvent).Owner == "b@y" },
		func(e domain.Event) { owners = append(owners, e.(domain.AutosaveCompletedEvent).Owner) })

	bus.Publish(domain.NewAutosaveCompletedEvent("a@x", true))
	bus.Publish(domain.NewAutosaveCompletedEvent("b@y", true))

	assert.Equal(t, []string{"b@y"}, owners)
}

func TestSyncEventBus_HasSubscribers(t *testing.T) {
	bus := newTestBus()
	assert.False(t, bus.HasSubscribers(domain.EventSessionChanged))

	id := bus.SubscribeAll(func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventSessionChanged))

	bus.Unsubscribe(id)
	assert.False(t, bus.HasSubscribers(domain.EventSessionChanged))
}

func TestSyncEventBus_HandlerPanicDoesNotStopOthers(t *testing.T) {
	bus := newTestBus()

	called := false
	bus.Subscribe(domain.EventLibraryLoaded, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventLibraryLoaded, func(domain.Event) { called = true })

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewLibraryLoadedEvent("a@x", 4, true))
	})
	assert.True(t, called)
}

func TestSyncEventBus_Close(t *testing.T) {
	bus := newTestBus()

	called := false
	bus.Subscribe(domain.EventSongAdded, func(domain.Event) { called = true })

	require.NoError(t, bus.Close())
	assert.Error(t, bus.Close())

	bus.Publish(domain.NewSongAddedEvent(domain.Song{}, ""))
	assert.False(t, called)
	assert.Panics(t, func() { bus.Subscribe(domain.EventSongAdded, func(domain.Event) {}) })
}

func TestSyncEventBus_NilArguments(t *testing.T) {
	bus := newTestBus()
	assert.NotPanics(t, func() { bus.Publish(nil) })
	assert.Panics(t, func() { bus.Subscribe(domain.EventSongAdded, nil) })
}

func TestSyncEventBus_HandlerMayPublish(t *testing.T) {
	bus := newTestBus()

	var nested atomic.Bool
	bus.Subscribe(domain.EventSongAdded, func(e domain.Event) {
		bus.Publish(domain.NewSongPlayedEvent(e.(domain.SongAddedEvent).Song))
	})
	bus.Subscribe(domain.EventSongPlayed, func(domain.Event) { nested.Store(true) })

	bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "1"}, "a@x"))
	assert.True(t, nested.Load())
}

func TestSyncEventBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	bus := newTestBus()

	var count atomic.Int64
	bus.Subscribe(domain.EventSearchRecorded, func(domain.Event) { count.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(domain.NewSearchRecordedEvent("q", nil))
			}
		}()
		go func() {
			defer wg.Done()
			bus.Subscribe(domain.EventSongAdded, func(domain.Event) {})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), count.Load())
	assert.Equal(t, 11, bus.SubscriberCount())
}
