// Package metadata resolves track metadata from embedded tags and from a
// remote lookup service.
package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

// payloadSource yields the bytes behind a transient handle.
type payloadSource interface {
	Materialize(ctx context.Context, ref string) (*domain.Payload, error)
}

// TagReader reads ID3/MP4/FLAC/OGG tags from uploaded audio.
type TagReader struct {
	source payloadSource
	logger *slog.Logger
}

// NewTagReader creates a tag reader over the given handle source.
func NewTagReader(source payloadSource, logger *slog.Logger) *TagReader {
	return &TagReader{
		source: source,
		logger: logger,
	}
}

// ReadFile reads the tags of the audio behind ref.
// Returns domain.ErrNoMetadata when the file carries no tags.
func (r *TagReader) ReadFile(ctx context.Context, ref string) (domain.ResolvedMetadata, error) {
	payload, err := r.source.Materialize(ctx, ref)
	if err != nil {
		return domain.ResolvedMetadata{}, err
	}
	return r.Read(payload.Data)
}

// Read parses tags from raw file bytes.
func (r *TagReader) Read(data []byte) (domain.ResolvedMetadata, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if errors.Is(err, tag.ErrNoTagsFound) {
		return domain.ResolvedMetadata{}, domain.ErrNoMetadata
	}
	if err != nil {
		return domain.ResolvedMetadata{}, fmt.Errorf("read tags: %w", errors.Join(domain.ErrNoMetadata, err))
	}

	meta := domain.ResolvedMetadata{
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(m.Artist()),
		Album:       strings.TrimSpace(m.Album()),
		Genre:       strings.TrimSpace(m.Genre()),
		ReleaseYear: m.Year(),
	}
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		meta.Cover = &domain.Payload{Data: pic.Data, MIMEType: pic.MIMEType}
	}
	meta.Lyrics = ParseLRC(m.Lyrics())

	r.logger.Debug("tags read",
		slog.String("format", string(m.Format())),
		slog.String("title", meta.Title),
		slog.Bool("cover", meta.Cover != nil),
		slog.Int("lyrics", len(meta.Lyrics)))
	return meta, nil
}

var lrcLine = regexp.MustCompile(`^\[(\d{1,3}):(\d{1,2}(?:\.\d{1,3})?)\](.*)$`)

// ParseLRC extracts timed lines ("[mm:ss.xx] text") from LRC lyrics, sorted
// by time. Untimed lines are dropped.
func ParseLRC(text string) []domain.LyricLine {
	var lines []domain.LyricLine
	for _, raw := range strings.Split(text, "\n") {
		match := lrcLine.FindStringSubmatch(strings.TrimSpace(raw))
		if match == nil {
			continue
		}
		minutes, _ := strconv.Atoi(match[1])
		seconds, _ := strconv.ParseFloat(match[2], 64)
		lines = append(lines, domain.LyricLine{
			Time: float64(minutes)*60 + seconds,
			Text: strings.TrimSpace(match[3]),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time < lines[j].Time })
	return lines
}

var _ ports.FileMetadataReader = (*TagReader)(nil)
