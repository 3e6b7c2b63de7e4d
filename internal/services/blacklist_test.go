package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewBlacklistService(db)

	token := uuid.NewString()

	revoked, err := svc.IsBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Blacklist(ctx, token, time.Now().Add(time.Hour)))

	revoked, err = svc.IsBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	err = svc.Blacklist(ctx, token, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrTokenAlreadyBlacklisted)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBlacklist_PruneExpired(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewBlacklistService(db)

	now := time.Now().UTC()
	stale := uuid.NewString()
	live := uuid.NewString()
	require.NoError(t, svc.Blacklist(ctx, stale, now.Add(-time.Minute)))
	require.NoError(t, svc.Blacklist(ctx, live, now.Add(time.Hour)))

	removed, err := svc.PruneExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	revoked, err := svc.IsBlacklisted(ctx, live)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = svc.IsBlacklisted(ctx, stale)
	require.NoError(t, err)
	assert.False(t, revoked)
}
