package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lshigami/Materia/config"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewTagCacheFromConfig connects to redis when REDIS_ADDR is set and falls
// back to the no-op cache otherwise. The returned close func is never nil.
func NewTagCacheFromConfig(ctx context.Context, cfg *config.Config) (TagCache, func() error, error) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("redis not configured, tag cache disabled")
		return NewNoopTagCache(), func() error { return nil }, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Redis.Addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TagCacheTTL).Msg("tag cache backed by redis")
	return NewRedisTagCache(rdb, cfg.Redis.TagCacheTTL), rdb.Close, nil
}
