package cache

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/internal/model"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopTagCacheAlwaysMisses(t *testing.T) {
	c := NewNoopTagCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []model.Tag{{ID: 1, Title: "Go", Slug: "go"}}))
	tags, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tags)
	assert.NoError(t, c.Invalidate(ctx))
}

func TestConfigWithoutRedisUsesNoop(t *testing.T) {
	c, closeFn, err := NewTagCacheFromConfig(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.IsType(t, noopTagCache{}, c)
	assert.NoError(t, closeFn())
}

func TestRedisTagCacheSurfacesConnectionErrors(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	c := NewRedisTagCache(rdb, time.Minute)

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}
