package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/jobboard/internal/cache"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
	"github.com/d60-Lab/jobboard/internal/testutil"
)

func TestUserCacheAside(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	c := cache.NewReadCache(rdb, time.Minute, time.Minute, nil)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (*model.User, error) {
		calls++
		return &model.User{ID: 5, Name: "Eve", Username: "eve", HashedPassword: "secret-hash"}, nil
	}

	u, err := c.User(ctx, 5, load)
	require.NoError(t, err)
	assert.Equal(t, "eve", u.Username)
	u, err = c.User(ctx, 5, load)
	require.NoError(t, err)
	assert.Equal(t, "eve", u.Username)
	assert.Empty(t, u.HashedPassword)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("user:5"))

	c.InvalidateUser(ctx, 5)
	assert.False(t, mr.Exists("user:5"))
	_, err = c.User(ctx, 5, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	got := c.Counters()
	assert.Equal(t, int64(1), got.Hits)
	assert.Equal(t, int64(2), got.Loads)
}

func TestUserCacheSkipsMissingAndErrors(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	c := cache.NewReadCache(rdb, time.Minute, time.Minute, nil)
	ctx := context.Background()

	u, err := c.User(ctx, 9, func(context.Context) (*model.User, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.False(t, mr.Exists("user:9"))

	boom := errors.New("db down")
	_, err = c.User(ctx, 9, func(context.Context) (*model.User, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestPublicPostingsGeneration(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	c := cache.NewReadCache(rdb, time.Minute, time.Minute, nil)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]*repository.PublicPosting, error) {
		calls++
		return []*repository.PublicPosting{{ID: int64(calls), Title: "Go developer"}}, nil
	}

	first, err := c.PublicPostings(ctx, "", 0, 20, load)
	require.NoError(t, err)
	second, err := c.PublicPostings(ctx, "", 0, 20, load)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, calls)

	_, err = c.PublicPostings(ctx, "engineering", 0, 20, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	c.InvalidatePostings(ctx)
	third, err := c.PublicPostings(ctx, "", 0, 20, load)
	require.NoError(t, err)
	assert.Equal(t, int64(3), third[0].ID)
}

func TestRedisDownFallsBackToLoader(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	c := cache.NewReadCache(rdb, time.Minute, time.Minute, nil)
	mr.Close()

	rows, err := c.PublicPostings(context.Background(), "", 0, 20, func(context.Context) ([]*repository.PublicPosting, error) {
		return []*repository.PublicPosting{{ID: 1}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	u, err := c.User(context.Background(), 1, func(context.Context) (*model.User, error) {
		return &model.User{ID: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}
