package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"TripWatch/storage/redis"
)

// PlanCache 规划结果的短 TTL 缓存。
// 同一分钟内多个行程可能发出相同的规划查询，缓存避免重复打到规划服务。
type PlanCache struct {
	ttl time.Duration
}

func NewPlanCache(ttl time.Duration) *PlanCache {
	return &PlanCache{ttl: ttl}
}

// Enabled TTL 为 0 时缓存关闭
func (c *PlanCache) Enabled() bool {
	return c != nil && c.ttl > 0
}

func planKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return redis.Key("plan", hex.EncodeToString(sum[:16]))
}

// GetPlan 查询缓存的规划响应体，未命中返回 (nil, nil)
func (c *PlanCache) GetPlan(ctx context.Context, query string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}

	body, err := redis.Client().Get(ctx, planKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return body, nil
}

// SetPlan 缓存规划响应体
func (c *PlanCache) SetPlan(ctx context.Context, query string, body []byte) error {
	if !c.Enabled() {
		return nil
	}
	return redis.Client().Set(ctx, planKey(query), body, c.ttl).Err()
}
