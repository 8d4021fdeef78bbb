package domain

// Genres offered by the browse and search filters, "All" first.
var Categories = []string{AllFilter, "Party", "Blues", "Sad", "Hip Hop"}

var starboyLyrics = []LyricLine{
	{Time: 0, Text: "I'm tryna put you in the worst mood, ah"},
	{Time: 4, Text: "P1 cleaner than your church shoes, ah"},
	{Time: 8, Text: "Milli point two on the dashboard, ah"},
	{Time: 12, Text: "Receipt on the table, it's a cash tour, ah"},
	{Time: 16, Text: "Look what you've done"},
	{Time: 20, Text: "I'm a starboy"},
	{Time: 24, Text: "Look what you've done"},
	{Time: 28, Text: "I'm a starboy"},
}

var chillLyrics = []LyricLine{
	{Time: 0, Text: "Look, if you had one shot"},
	{Time: 5, Text: "Or one opportunity"},
	{Time: 10, Text: "To seize everything you ever wanted"},
	{Time: 15, Text: "In one moment"},
	{Time: 20, Text: "Would you capture it?"},
	{Time: 25, Text: "Or just let it slip?"},
}

// DefaultCatalog returns a fresh copy of the built-in songs every user sees.
// All of them are fixed.
func DefaultCatalog() []Song {
	songs := []Song{
		{
			ID:          "1",
			Title:       "Starboy Remix",
			Artist:      "The Weeknd",
			Album:       "Starboy",
			CoverURL:    "https://images.unsplash.com/photo-1614613535308-eb5fbd3d2c17?q=80&w=600&auto=format&fit=crop",
			AudioURL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3",
			Duration:    "6:12",
			Genre:       "Party",
			ReleaseYear: 2024,
			IsFixed:     true,
			Lyrics:      starboyLyrics,
		},
		{
			ID:          "2",
			Title:       "Lofi Chill",
			Artist:      "Eminiem",
			Album:       "The Eminem Show",
			CoverURL:    "https://images.unsplash.com/photo-1493225255756-d9584f8606e9?q=80&w=600&auto=format&fit=crop",
			AudioURL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-2.mp3",
			Duration:    "7:05",
			Genre:       "Hip Hop",
			ReleaseYear: 2002,
			IsFixed:     true,
			Lyrics:      chillLyrics,
		},
		{
			ID:          "3",
			Title:       "Midnight Dance",
			Artist:      "Kyanu & L",
			Album:       "Dance Vibes",
			CoverURL:    "https://images.unsplash.com/photo-1470225620780-dba8ba36b745?q=80&w=600&auto=format&fit=crop",
			AudioURL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-3.mp3",
			Duration:    "5:24",
			Genre:       "Party",
			ReleaseYear: 2023,
			IsFixed:     true,
			Lyrics:      starboyLyrics,
		},
		{
			ID:          "4",
			Title:       "Blue Horizon",
			Artist:      "The Weeknd",
			Album:       "After Hours",
			CoverURL:    "https://images.unsplash.com/photo-1459749411177-042180ce6742?q=80&w=600&auto=format&fit=crop",
			AudioURL:    "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-4.mp3",
			Duration:    "5:41",
			Genre:       "Blues",
			ReleaseYear: 2020,
			IsFixed:     true,
			Lyrics:      chillLyrics,
		},
	}
	for i := range songs {
		songs[i].Lyrics = append([]LyricLine(nil), songs[i].Lyrics...)
	}
	return songs
}

// FixedSongs returns the catalog songs that can never be deleted.
func FixedSongs() []Song {
	var fixed []Song
	for _, s := range DefaultCatalog() {
		if s.IsFixed {
			fixed = append(fixed, s)
		}
	}
	return fixed
}

// MergeFixed appends every fixed song whose id is not already present.
// Stored songs keep their position and win on id collisions.
func MergeFixed(songs, fixed []Song) []Song {
	seen := make(map[string]bool, len(songs))
	out := make([]Song, 0, len(songs)+len(fixed))
	for _, s := range songs {
		seen[s.ID] = true
		out = append(out, s)
	}
	for _, f := range fixed {
		if !seen[f.ID] {
			seen[f.ID] = true
			out = append(out, f)
		}
	}
	return out
}
