package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryOAuthStateRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &inMemoryOAuthStateRepository{states: map[string]time.Time{}, now: func() time.Time { return now }}

	require.NoError(t, repo.Save(ctx, "abc", 10*time.Minute))

	ok, err := repo.Consume(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Consume(ctx, "abc")
	require.NoError(t, err)
	require.False(t, ok, "states are single use")

	ok, err = repo.Consume(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Save(ctx, "late", time.Minute))
	now = now.Add(2 * time.Minute)
	ok, err = repo.Consume(ctx, "late")
	require.NoError(t, err)
	require.False(t, ok, "expired states are rejected")
}
