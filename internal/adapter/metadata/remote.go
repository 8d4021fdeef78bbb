package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/ports"
)

const maxResponseBytes = 1 << 20

// RemoteResolver asks an HTTP lookup service for track metadata.
//
//	GET <endpoint>/resolve?q=<id or name>  -> one object
//	GET <endpoint>/search?q=<text>         -> array of objects
//
// Responses are treated as untrusted text: the first JSON object or array in
// the body is used and anything unparsable counts as "nothing found".
type RemoteResolver struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewRemoteResolver creates a resolver. An empty endpoint disables lookups.
func NewRemoteResolver(endpoint string, client *http.Client, logger *slog.Logger) *RemoteResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteResolver{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		logger:   logger,
	}
}

// Resolve looks up one track.
func (r *RemoteResolver) Resolve(ctx context.Context, query string) (domain.ResolvedMetadata, error) {
	body, err := r.get(ctx, "resolve", query)
	if err != nil {
		return domain.ResolvedMetadata{}, err
	}

	var wire wireTrack
	if err := json.Unmarshal([]byte(extractJSON(body, '{', '}')), &wire); err != nil {
		r.logger.Warn("unparsable resolve response", slog.String("query", query), slog.Any("error", err))
		return domain.ResolvedMetadata{}, domain.ErrNoMetadata
	}
	meta := wire.toMetadata()
	if meta.IsEmpty() {
		return domain.ResolvedMetadata{}, domain.ErrNoMetadata
	}
	return meta, nil
}

// Search returns candidate tracks. A malformed body yields an empty result.
func (r *RemoteResolver) Search(ctx context.Context, query string) ([]domain.ResolvedMetadata, error) {
	body, err := r.get(ctx, "search", query)
	if err != nil {
		return []domain.ResolvedMetadata{}, err
	}

	var wire []wireTrack
	if err := json.Unmarshal([]byte(extractJSON(body, '[', ']')), &wire); err != nil {
		r.logger.Warn("unparsable search response", slog.String("query", query), slog.Any("error", err))
		return []domain.ResolvedMetadata{}, nil
	}
	out := make([]domain.ResolvedMetadata, 0, len(wire))
	for _, w := range wire {
		if m := w.toMetadata(); !m.IsEmpty() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *RemoteResolver) get(ctx context.Context, path, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.ErrEmptyQuery
	}
	if r.endpoint == "" {
		return "", domain.ErrNoMetadata
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/"+path+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("metadata lookup failed", slog.String("path", path), slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, domain.ErrNoMetadata)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// extractJSON returns the span from the first open to the last close
// delimiter, or the whole text when no such span exists.
func extractJSON(text string, opening, closing byte) string {
	start := strings.IndexByte(text, opening)
	end := strings.LastIndexByte(text, closing)
	if start == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

// wireTrack tolerates years sent as numbers or strings.
type wireTrack struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Genre       string `json:"genre"`
	CoverURL    string `json:"coverUrl"`
	AudioURL    string `json:"audioUrl"`
	ReleaseYear any    `json:"releaseYear"`
}

func (w wireTrack) toMetadata() domain.ResolvedMetadata {
	m := domain.ResolvedMetadata{
		Title:    strings.TrimSpace(w.Title),
		Artist:   strings.TrimSpace(w.Artist),
		Album:    strings.TrimSpace(w.Album),
		Genre:    strings.TrimSpace(w.Genre),
		CoverURL: strings.TrimSpace(w.CoverURL),
		AudioURL: strings.TrimSpace(w.AudioURL),
	}
	switch y := w.ReleaseYear.(type) {
	case float64:
		m.ReleaseYear = int(y)
	case string:
		m.ReleaseYear, _ = strconv.Atoi(strings.TrimSpace(y))
	}
	return m
}

var _ ports.MetadataResolver = (*RemoteResolver)(nil)
