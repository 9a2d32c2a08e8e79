// Package cache holds cache-aside readers for user profiles and the public posting list.
// Redis errors never fail a read: the loader result is returned and the error is logged.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/jobboard/internal/metrics"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
)

const (
	cacheUser     = "user"
	cachePostings = "public_postings"

	// bumped on every posting write; listing keys embed the current value
	publicGenKey = "postings:public:gen"
)

// UserLoader fetches a user from the primary store; nil means not found.
type UserLoader func(ctx context.Context) (*model.User, error)

// PostingsLoader fetches one page of the public listing.
type PostingsLoader func(ctx context.Context) ([]*repository.PublicPosting, error)

// ReadCache is safe for concurrent use.
type ReadCache struct {
	rdb        redis.Cmdable
	userTTL    time.Duration
	postingTTL time.Duration
	log        *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

func NewReadCache(rdb redis.Cmdable, userTTL, postingTTL time.Duration, log *zap.Logger) *ReadCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReadCache{rdb: rdb, userTTL: userTTL, postingTTL: postingTTL, log: log}
}

func UserKey(id int64) string { return fmt.Sprintf("user:%d", id) }

// User returns the cached profile or loads and caches it. Missing users are not cached.
func (c *ReadCache) User(ctx context.Context, id int64, load UserLoader) (*model.User, error) {
	key := UserKey(id)
	var u model.User
	if c.get(ctx, cacheUser, key, &u) {
		return &u, nil
	}

	c.loads.Add(1)
	loaded, err := load(ctx)
	if err != nil || loaded == nil {
		return loaded, err
	}
	c.set(ctx, key, loaded, c.userTTL)
	return loaded, nil
}

// InvalidateUser drops the cached profile.
func (c *ReadCache) InvalidateUser(ctx context.Context, id int64) {
	if err := c.rdb.Del(ctx, UserKey(id)).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.String("key", UserKey(id)), zap.Error(err))
	}
}

// PublicPostings caches one listing page under the current generation.
func (c *ReadCache) PublicPostings(ctx context.Context, category string, offset, limit int, load PostingsLoader) ([]*repository.PublicPosting, error) {
	gen, err := c.rdb.Get(ctx, publicGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("cache generation read failed", zap.Error(err))
		c.loads.Add(1)
		return load(ctx)
	}
	key := fmt.Sprintf("postings:public:%d:%s:%d:%d", gen, category, offset, limit)

	var out []*repository.PublicPosting
	if c.get(ctx, cachePostings, key, &out) {
		return out, nil
	}

	c.loads.Add(1)
	rows, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*repository.PublicPosting{}
	}
	c.set(ctx, key, rows, c.postingTTL)
	return rows, nil
}

// InvalidatePostings moves the listing to a new generation; old pages expire by TTL.
func (c *ReadCache) InvalidatePostings(ctx context.Context) {
	pipe := c.rdb.Pipeline()
	pipe.Incr(ctx, publicGenKey)
	pipe.Expire(ctx, publicGenKey, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("cache invalidate failed", zap.String("key", publicGenKey), zap.Error(err))
	}
}

func (c *ReadCache) get(ctx context.Context, name, key string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.miss(name)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.miss(name)
		return false
	}
	c.hits.Add(1)
	metrics.CacheRequestsTotal.WithLabelValues(name, metrics.CacheHit).Inc()
	return true
}

func (c *ReadCache) miss(name string) {
	c.misses.Add(1)
	metrics.CacheRequestsTotal.WithLabelValues(name, metrics.CacheMiss).Inc()
}

func (c *ReadCache) set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Counters summarises cache traffic since the last reset.
type Counters struct {
	Hits   int64
	Misses int64
	Loads  int64
}

func (c *ReadCache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load(), Loads: c.loads.Load()}
}

func (c *ReadCache) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.loads.Store(0)
}
