package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thirdeye/overseer/internal/models"
)

// RedisManager stores each sub-bucket as its own counter key with a TTL
// slightly longer than the window, so stale buckets expire themselves
// instead of requiring a sweep. This lets the Quota Manager share admission
// state across replicas, unlike the in-memory Pipeline Bus.
type RedisManager struct {
	client *redis.Client
	window time.Duration
}

func NewRedisManager(client *redis.Client, window time.Duration) *RedisManager {
	return &RedisManager{client: client, window: window}
}

func (m *RedisManager) bucketWidth() int64 {
	width := int64(m.window/time.Second) / SubBucketCount
	if width <= 0 {
		width = 1
	}
	return width
}

func (m *RedisManager) bucketKeys(tenantID string, now time.Time) []string {
	width := m.bucketWidth()
	nowSec := now.Unix()
	keys := make([]string, 0, SubBucketCount)
	for i := int64(0); i < SubBucketCount; i++ {
		bucketStart := ((nowSec - i*width) / width) * width
		keys = append(keys, fmt.Sprintf("quota:%s:%d", tenantID, bucketStart))
	}
	return keys
}

// CheckAndIncrement sums the last SubBucketCount buckets via MGET, then
// INCRs the current bucket only on admission. The sum-then-increment pair
// is not a single atomic round trip; the in-memory manager is the
// strictly-serialized alternative when cross-replica sharing isn't needed.
func (m *RedisManager) CheckAndIncrement(ctx context.Context, tenantID string, limit int64) (*models.AdmissionDecision, error) {
	now := time.Now()
	keys := m.bucketKeys(tenantID, now)

	vals, err := m.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("quota mget: %w", err)
	}

	var sum int64
	for _, v := range vals {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			var n int64
			fmt.Sscanf(s, "%d", &n)
			sum += n
		}
	}

	if sum+1 > limit {
		return &models.AdmissionDecision{Admitted: false, CurrentUsage: sum, Limit: limit}, nil
	}

	currentKey := keys[0]
	count, err := m.client.Incr(ctx, currentKey).Result()
	if err != nil {
		return nil, fmt.Errorf("quota incr: %w", err)
	}
	if count == 1 {
		m.client.Expire(ctx, currentKey, m.window+m.window/SubBucketCount)
	}

	return &models.AdmissionDecision{Admitted: true, CurrentUsage: sum + 1, Limit: limit}, nil
}

func (m *RedisManager) GetUsage(ctx context.Context, tenantID string) (int64, error) {
	keys := m.bucketKeys(tenantID, time.Now())
	vals, err := m.client.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("quota mget: %w", err)
	}
	var sum int64
	for _, v := range vals {
		if s, ok := v.(string); ok {
			var n int64
			fmt.Sscanf(s, "%d", &n)
			sum += n
		}
	}
	return sum, nil
}

func (m *RedisManager) SetLimit(ctx context.Context, tenantID string, limit int64) {
	// Limits are supplied per-call by the caller (persisted on the tenant
	// record); the Redis backend has no per-tenant limit to store.
}

func (m *RedisManager) Reset(ctx context.Context, tenantID string) error {
	keys := m.bucketKeys(tenantID, time.Now())
	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("quota reset: %w", err)
	}
	return nil
}
