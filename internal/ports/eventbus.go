// Package ports defines the contracts between the library core and its adapters.
package ports

import (
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
)

// EventBus carries domain events from services to whoever observes them:
// the inbox, the autosave status tracker, debug logging and the CLI.
// Publishers never learn who is listening.
//
// Implementations must be safe for use from multiple goroutines.
//
//	id := bus.Subscribe(domain.EventSongAdded, func(e domain.Event) {
//	    fmt.Println("added", e.(domain.SongAddedEvent).Song.Title)
//	})
//	defer bus.Unsubscribe(id)
type EventBus interface {
	// Publish hands event to every matching subscriber. Handlers run before
	// Publish returns, so they must not block.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type. Registering the same
	// handler twice yields two subscriptions.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown ids are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions. Publishing afterwards is a no-op.
	Close() error
}

// EventFilter decides whether a subscriber sees an event.
type EventFilter func(event domain.Event) bool

// FilteringEventBus adds predicate subscriptions, used where a subscriber only
// cares about one owner's events.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers handler for events of eventType that pass filter.
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
