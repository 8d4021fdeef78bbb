// Package domain defines events for the event-driven architecture.
// Services publish these so that observers (logging, the CLI) stay decoupled.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Library events
	EventLibraryLoaded    EventType = "library.loaded"
	EventSongAdded        EventType = "song.added"
	EventSongDeleted      EventType = "song.deleted"
	EventSongPlayed       EventType = "song.played"
	EventDownloadsChanged EventType = "downloads.changed"
	EventLyricsUpdated    EventType = "lyrics.updated"

	// Session events
	EventSessionChanged EventType = "session.changed"

	// Playlist events
	EventPlaylistsChanged EventType = "playlists.changed"

	// Search events
	EventSearchRecorded EventType = "search.recorded"

	// Persistence events
	EventAutosaveCompleted EventType = "autosave.completed"
	EventImportFailed      EventType = "import.failed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// LibraryLoadedEvent is published after the library was hydrated for an owner.
type LibraryLoadedEvent struct {
	baseEvent
	Owner     string
	SongCount int
	Seeded    bool // true when the default catalog was written on first run
}

// Type returns the event type.
func (e LibraryLoadedEvent) Type() EventType {
	return EventLibraryLoaded
}

// NewLibraryLoadedEvent creates a new LibraryLoadedEvent.
func NewLibraryLoadedEvent(owner string, count int, seeded bool) LibraryLoadedEvent {
	return LibraryLoadedEvent{
		baseEvent: newBaseEvent(),
		Owner:     owner,
		SongCount: count,
		Seeded:    seeded,
	}
}

// SongAddedEvent is published when a song is added, uploaded or resolved from a link.
type SongAddedEvent struct {
	baseEvent
	Song  Song
	Owner string
}

// Type returns the event type.
func (e SongAddedEvent) Type() EventType {
	return EventSongAdded
}

// NewSongAddedEvent creates a new SongAddedEvent.
func NewSongAddedEvent(song Song, owner string) SongAddedEvent {
	return SongAddedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
		Owner:     owner,
	}
}

// SongDeletedEvent is published when a song is removed from the library.
type SongDeletedEvent struct {
	baseEvent
	SongID string
	Owner  string
}

// Type returns the event type.
func (e SongDeletedEvent) Type() EventType {
	return EventSongDeleted
}

// NewSongDeletedEvent creates a new SongDeletedEvent.
func NewSongDeletedEvent(songID, owner string) SongDeletedEvent {
	return SongDeletedEvent{
		baseEvent: newBaseEvent(),
		SongID:    songID,
		Owner:     owner,
	}
}

// SongPlayedEvent is published when a song becomes the current song.
type SongPlayedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e SongPlayedEvent) Type() EventType {
	return EventSongPlayed
}

// NewSongPlayedEvent creates a new SongPlayedEvent.
func NewSongPlayedEvent(song Song) SongPlayedEvent {
	return SongPlayedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// DownloadsChangedEvent is published when the downloaded set changes.
type DownloadsChangedEvent struct {
	baseEvent
	Downloaded []string
}

// Type returns the event type.
func (e DownloadsChangedEvent) Type() EventType {
	return EventDownloadsChanged
}

// NewDownloadsChangedEvent creates a new DownloadsChangedEvent.
func NewDownloadsChangedEvent(downloaded []string) DownloadsChangedEvent {
	return DownloadsChangedEvent{
		baseEvent:  newBaseEvent(),
		Downloaded: downloaded,
	}
}

// LyricsUpdatedEvent is published when a song's lyrics are replaced.
type LyricsUpdatedEvent struct {
	baseEvent
	SongID string
	Lines  int
}

// Type returns the event type.
func (e LyricsUpdatedEvent) Type() EventType {
	return EventLyricsUpdated
}

// NewLyricsUpdatedEvent creates a new LyricsUpdatedEvent.
func NewLyricsUpdatedEvent(songID string, lines int) LyricsUpdatedEvent {
	return LyricsUpdatedEvent{
		baseEvent: newBaseEvent(),
		SongID:    songID,
		Lines:     lines,
	}
}

// SessionChangedEvent is published on login, profile update and logout.
type SessionChangedEvent struct {
	baseEvent
	Profile  UserProfile
	Previous string // email of the previous active user
}

// Type returns the event type.
func (e SessionChangedEvent) Type() EventType {
	return EventSessionChanged
}

// NewSessionChangedEvent creates a new SessionChangedEvent.
func NewSessionChangedEvent(profile UserProfile, previous string) SessionChangedEvent {
	return SessionChangedEvent{
		baseEvent: newBaseEvent(),
		Profile:   profile,
		Previous:  previous,
	}
}

// PlaylistsChangedEvent is published when a playlist is created or modified.
type PlaylistsChangedEvent struct {
	baseEvent
	Playlists []Playlist
}

// Type returns the event type.
func (e PlaylistsChangedEvent) Type() EventType {
	return EventPlaylistsChanged
}

// NewPlaylistsChangedEvent creates a new PlaylistsChangedEvent.
func NewPlaylistsChangedEvent(playlists []Playlist) PlaylistsChangedEvent {
	return PlaylistsChangedEvent{
		baseEvent: newBaseEvent(),
		Playlists: playlists,
	}
}

// SearchRecordedEvent is published when a query is added to the search history.
type SearchRecordedEvent struct {
	baseEvent
	Query   string
	History []string
}

// Type returns the event type.
func (e SearchRecordedEvent) Type() EventType {
	return EventSearchRecorded
}

// NewSearchRecordedEvent creates a new SearchRecordedEvent.
func NewSearchRecordedEvent(query string, history []string) SearchRecordedEvent {
	return SearchRecordedEvent{
		baseEvent: newBaseEvent(),
		Query:     query,
		History:   history,
	}
}

// AutosaveCompletedEvent is published after each periodic flush.
type AutosaveCompletedEvent struct {
	baseEvent
	Owner string
	OK    bool // false when at least one store rejected the write
}

// Type returns the event type.
func (e AutosaveCompletedEvent) Type() EventType {
	return EventAutosaveCompleted
}

// NewAutosaveCompletedEvent creates a new AutosaveCompletedEvent.
func NewAutosaveCompletedEvent(owner string, ok bool) AutosaveCompletedEvent {
	return AutosaveCompletedEvent{
		baseEvent: newBaseEvent(),
		Owner:     owner,
		OK:        ok,
	}
}

// ImportFailedEvent is published when an inbox file could not be imported.
type ImportFailedEvent struct {
	baseEvent
	Path  string
	Error error
}

// Type returns the event type.
func (e ImportFailedEvent) Type() EventType {
	return EventImportFailed
}

// NewImportFailedEvent creates a new ImportFailedEvent.
func NewImportFailedEvent(path string, err error) ImportFailedEvent {
	return ImportFailedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
		Error:     err,
	}
}
