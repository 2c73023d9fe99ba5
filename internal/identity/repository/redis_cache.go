package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const scopeKeyPrefix = "ticktask:leader-scope:"

type redisScopeCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisScopeCache connects to Redis and returns a ScopeCache. Cache
// failures are logged and treated as misses.
func NewRedisScopeCache(ctx context.Context, url string, ttl time.Duration, logger *zap.Logger) (ScopeCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &redisScopeCache{client: client, ttl: ttl, logger: logger.Named("scope-cache")}, nil
}

func (c *redisScopeCache) Get(ctx context.Context, leaderID string) ([]string, bool) {
	raw, err := c.client.Get(ctx, scopeKeyPrefix+leaderID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("scope cache read failed", zap.String("leader_id", leaderID), zap.Error(err))
		}
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *redisScopeCache) Set(ctx context.Context, leaderID string, memberIDs []string) {
	if memberIDs == nil {
		memberIDs = []string{}
	}
	raw, err := json.Marshal(memberIDs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, scopeKeyPrefix+leaderID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("scope cache write failed", zap.String("leader_id", leaderID), zap.Error(err))
	}
}

func (c *redisScopeCache) Invalidate(ctx context.Context, leaderIDs ...string) {
	if len(leaderIDs) == 0 {
		return
	}
	keys := make([]string, len(leaderIDs))
	for i, id := range leaderIDs {
		keys[i] = scopeKeyPrefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("scope cache invalidation failed", zap.Error(err))
	}
}

// noopScopeCache is used when Redis is not configured.
type noopScopeCache struct{}

func NewNoopScopeCache() ScopeCache { return noopScopeCache{} }

func (noopScopeCache) Get(context.Context, string) ([]string, bool) { return nil, false }
func (noopScopeCache) Set(context.Context, string, []string)        {}
func (noopScopeCache) Invalidate(context.Context, ...string)        {}
