// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the VibeMusic library core.
package domain

import (
	"path/filepath"
	"strings"
)

// LyricLine is one timed line of a song's lyrics.
type LyricLine struct {
	// Time is the offset from the start of the track in seconds
	Time float64 `json:"time"`

	// Text is the lyric shown at that offset
	Text string `json:"text"`
}

// Payload is the durable binary form of an audio or cover file.
// It survives restarts, unlike the transient reference that points at it while
// the process is alive.
type Payload struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"type"`
}

// Song is a single track in the library.
//
// AudioURL and CoverURL are references: either a remote URL or a transient
// handle that is only valid for the lifetime of the process. When the matching
// payload is present it is authoritative and the reference is regenerated from
// it on load.
type Song struct {
	// ID is a unique identifier for the song
	ID string `json:"id"`

	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`

	// CoverURL is the cover image reference
	CoverURL string `json:"coverUrl"`

	// AudioURL is the playable audio reference
	AudioURL string `json:"audioUrl,omitempty"`

	// AudioBlob is the durable audio payload, if one was captured
	AudioBlob *Payload `json:"audioBlob,omitempty"`

	// CoverBlob is the durable cover payload, if one was captured
	CoverBlob *Payload `json:"coverBlob,omitempty"`

	// Duration is a display label such as "6:12" or "--:--"
	Duration string `json:"duration"`

	Genre       string `json:"genre"`
	ReleaseYear int    `json:"releaseYear"`

	// IsDownloaded is recomputed by the library from its downloaded set
	IsDownloaded bool `json:"isDownloaded,omitempty"`

	// IsFixed songs can never be deleted
	IsFixed bool `json:"isFixed,omitempty"`

	Lyrics []LyricLine `json:"lyrics,omitempty"`
}

// UserProfile is a locally known user. Email is the identity key.
type UserProfile struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
	IsLoggedIn   bool   `json:"isLoggedIn"`
}

// Playlist is a named set of song ids.
type Playlist struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	SongIDs []string `json:"songIds"`
}

// Contains reports whether the playlist already holds songID.
func (p Playlist) Contains(songID string) bool {
	for _, id := range p.SongIDs {
		if id == songID {
			return true
		}
	}
	return false
}

// Defaults applied to songs built from partial metadata.
const (
	DefaultResolvedTitle    = "Resolved Track"
	DefaultUploadTitle      = "Untitled Track"
	DefaultArtist           = "Unknown Artist"
	DefaultResolvedAlbum    = "Cloud Sync"
	DefaultUploadAlbum      = "My Uploads"
	DefaultDuration         = "--:--"
	DefaultResolvedGenre    = "Cloud"
	DefaultUploadGenre      = "Party"
	DefaultCoverURL         = "https://images.unsplash.com/photo-1614613535308-eb5fbd3d2c17"
	DefaultResolvedAudioURL = "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3"
	DefaultUploadCoverURL   = "https://images.unsplash.com/photo-1627773755483-267444009746?q=80&w=600&auto=format&fit=crop"
	DefaultProfileImage     = "https://images.unsplash.com/photo-1511367461989-f85a21fda167?q=80&w=200&auto=format&fit=crop"
	GuestName               = "Guest User"
)

// AllFilter is the "match anything" value for genre and year filters.
const AllFilter = "All"

// GuestProfile returns the signed-out profile for the given guest identity.
func GuestProfile(email string) UserProfile {
	return UserProfile{
		Name:         GuestName,
		Email:        email,
		ProfileImage: DefaultProfileImage,
		IsLoggedIn:   false,
	}
}

// ResolvedMetadata is whatever an external resolver managed to find about a
// track. Every field may be empty.
type ResolvedMetadata struct {
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	Album       string      `json:"album"`
	Genre       string      `json:"genre"`
	CoverURL    string      `json:"coverUrl"`
	AudioURL    string      `json:"audioUrl"`
	ReleaseYear int         `json:"releaseYear"`
	Cover       *Payload    `json:"-"`
	Lyrics      []LyricLine `json:"-"`
}

// IsEmpty reports whether nothing useful was resolved.
func (m ResolvedMetadata) IsEmpty() bool {
	return m.Title == "" && m.Artist == "" && m.Album == "" && m.Genre == "" &&
		m.CoverURL == "" && m.AudioURL == "" && m.ReleaseYear == 0 && m.Cover == nil
}

// ToSong builds a song with the given id, filling every missing field with the
// resolved-track defaults. Without a stream of its own the song plays the
// stock demo stream. currentYear is used when no year was resolved.
func (m ResolvedMetadata) ToSong(id string, currentYear int) Song {
	song := Song{
		ID:          id,
		Title:       firstNonEmpty(m.Title, DefaultResolvedTitle),
		Artist:      firstNonEmpty(m.Artist, DefaultArtist),
		Album:       firstNonEmpty(m.Album, DefaultResolvedAlbum),
		CoverURL:    firstNonEmpty(m.CoverURL, DefaultCoverURL),
		AudioURL:    firstNonEmpty(m.AudioURL, DefaultResolvedAudioURL),
		Duration:    DefaultDuration,
		Genre:       firstNonEmpty(m.Genre, DefaultResolvedGenre),
		ReleaseYear: m.ReleaseYear,
		Lyrics:      m.Lyrics,
	}
	if song.ReleaseYear <= 0 {
		song.ReleaseYear = currentYear
	}
	return song
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// supportedExts lists the audio file extensions accepted for import.
var supportedExts = map[string]bool{
	".mp3":  true,
	".mp2":  true,
	".mp1":  true,
	".ogg":  true,
	".wav":  true,
	".aif":  true,
	".aiff": true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".opus": true,
	".webm": true,
}

// IsSupportedAudio reports whether path has an importable audio extension.
func IsSupportedAudio(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// TitleFromFileName derives a display title from a file name.
func TitleFromFileName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}
