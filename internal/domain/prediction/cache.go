package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const cacheKeyPrefix = "ckd:prediction:latest:"

// RedisCache keeps the latest prediction of each patient in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(patientID uuid.UUID) string {
	return cacheKeyPrefix + patientID.String()
}

func (c *RedisCache) Get(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	val, err := c.client.Get(ctx, cacheKey(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *RedisCache) Set(ctx context.Context, rec *Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(rec.PatientID), b, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, patientID uuid.UUID) error {
	return c.client.Del(ctx, cacheKey(patientID)).Err()
}

// NopCache is used when no Redis is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, uuid.UUID) (*Record, error) { return nil, nil }
func (NopCache) Set(context.Context, *Record) error              { return nil }
func (NopCache) Invalidate(context.Context, uuid.UUID) error     { return nil }
