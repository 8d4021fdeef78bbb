package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/vibemusic/internal/logger"
)

func TestRecentlyPlayedRepository_SaveAndLoad(t *testing.T) {
	gw := newTestGateway()
	repo := NewRecentlyPlayedRepository(gw, logger.NewTestLogger())
	ctx := context.Background()

	assert.Equal(t, []string{}, repo.LoadRecentlyPlayed(ctx, "a@x"))

	require.True(t, repo.SaveRecentlyPlayed(ctx, []string{"3", "1"}, "a@x"))
	require.True(t, repo.SaveRecentlyPlayed(ctx, []string{"2"}, "b@y"))

	assert.Equal(t, []string{"3", "1"}, repo.LoadRecentlyPlayed(ctx, "a@x"))
	assert.Equal(t, []string{"2"}, repo.LoadRecentlyPlayed(ctx, "b@y"))
	assert.Equal(t, []string{"3", "1"}, getMetadata(t, gw, "a@x_recently_played"))

	// Full overwrite.
	require.True(t, repo.SaveRecentlyPlayed(ctx, nil, "a@x"))
	assert.Equal(t, []string{}, repo.LoadRecentlyPlayed(ctx, "a@x"))
}

func TestSearchHistoryRepository_IsGlobal(t *testing.T) {
	gw := newTestGateway()
	repo := NewSearchHistoryRepository(gw, logger.NewTestLogger())
	ctx := context.Background()

	assert.Equal(t, []string{}, repo.LoadSearchHistory(ctx))

	require.True(t, repo.SaveSearchHistory(ctx, []string{"lofi", "weeknd"}))
	assert.Equal(t, []string{"lofi", "weeknd"}, repo.LoadSearchHistory(ctx))
	assert.Equal(t, []string{"lofi", "weeknd"}, getMetadata(t, gw, "search_history"))
}

func TestListRepositories_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	recents := NewRecentlyPlayedRepository(unavailableDB{}, logger.NewTestLogger())
	history := NewSearchHistoryRepository(unavailableDB{}, logger.NewTestLogger())

	assert.False(t, recents.SaveRecentlyPlayed(ctx, []string{"1"}, "a@x"))
	assert.Equal(t, []string{}, recents.LoadRecentlyPlayed(ctx, "a@x"))
	assert.False(t, history.SaveSearchHistory(ctx, []string{"q"}))
	assert.Equal(t, []string{}, history.LoadSearchHistory(ctx))
}
