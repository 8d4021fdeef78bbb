// Package local implements the library repositories on top of a storage
// database. Records are JSON; per-user id lists live in the metadata
// collection under scoped keys.
//
// Every repository absorbs failures: it logs a warning and reports false or an
// empty result, so storage trouble never escapes to callers.
package local

import (
	"encoding/json"
	"errors"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// Metadata keys. Per-user keys are combined with an email by ScopedKey.
const (
	KeySongIDs        = "song_ids"
	KeyRecentlyPlayed = "recently_played"
	KeyPlaylistIDs    = "playlist_ids"

	KeyPublicSongIDs   = "public_song_ids"
	KeyInitialized     = "has_initialized"
	KeyLastActiveEmail = "last_active_email"
	KeySearchHistory   = "search_history"
)

// ScopedKey namespaces a metadata key to one user: email + "_" + name.
func ScopedKey(email, name string) string {
	return email + "_" + name
}

func getJSON(c ports.Collection, key string, v any) error {
	raw, err := c.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func putJSON(c ports.Collection, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Put(key, raw)
}

// getIDs reads a string list, treating a missing key as empty.
func getIDs(c ports.Collection, key string) ([]string, error) {
	var ids []string
	err := getJSON(c, key, &ids)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// union returns a followed by the ids of b not already seen, without duplicates.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func collections(tx ports.Tx, names ...string) ([]ports.Collection, error) {
	out := make([]ports.Collection, len(names))
	for i, name := range names {
		c, err := tx.Collection(name)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
