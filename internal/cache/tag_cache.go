// Package cache keeps the public tag list close to the API. Tags change only
// through admin endpoints, which invalidate the entry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/Materia/internal/model"
	goredis "github.com/redis/go-redis/v9"
)

const tagListKey = "materia:tags:all"

type TagCache interface {
	// Get reports a miss with ok=false and a nil error.
	Get(ctx context.Context) (tags []model.Tag, ok bool, err error)
	Set(ctx context.Context, tags []model.Tag) error
	Invalidate(ctx context.Context) error
}

type redisTagCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisTagCache(rdb *goredis.Client, ttl time.Duration) TagCache {
	return &redisTagCache{rdb: rdb, ttl: ttl}
}

func (c *redisTagCache) Get(ctx context.Context) ([]model.Tag, bool, error) {
	raw, err := c.rdb.Get(ctx, tagListKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get tags: %w", err)
	}
	var tags []model.Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, false, fmt.Errorf("decode cached tags: %w", err)
	}
	return tags, true, nil
}

func (c *redisTagCache) Set(ctx context.Context, tags []model.Tag) error {
	raw, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, tagListKey, raw, c.ttl).Err()
}

func (c *redisTagCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, tagListKey).Err()
}

type noopTagCache struct{}

// NewNoopTagCache never hits; used when no redis address is configured.
func NewNoopTagCache() TagCache { return noopTagCache{} }

func (noopTagCache) Get(context.Context) ([]model.Tag, bool, error) { return nil, false, nil }
func (noopTagCache) Set(context.Context, []model.Tag) error         { return nil }
func (noopTagCache) Invalidate(context.Context) error               { return nil }
