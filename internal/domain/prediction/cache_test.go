package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisCache(client, time.Minute)
}

func sampleRecord(patientID uuid.UUID) *Record {
	stage := 3
	return &Record{
		ID:               uuid.New(),
		PatientID:        patientID,
		PredictionResult: "CKD Stage 3",
		Confidence:       85,
		PredictedStage:   &stage,
		RiskLevel:        RiskHigh,
		InputData:        InputMetrics{Age: 61, BloodPressure: "138/88", SerumCreatinine: 1.7, EGFR: 44},
		Recommendations:  []string{"Regular nephrology follow-up"},
		ModelVersion:     "2.0.0-PCA",
		CreatedAt:        time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestRedisCache_Miss(t *testing.T) {
	_, cache := setupTestRedis(t)
	rec, err := cache.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, cache := setupTestRedis(t)
	ctx := context.Background()
	pid := uuid.New()
	want := sampleRecord(pid)

	require.NoError(t, cache.Set(ctx, want))
	assert.True(t, mr.Exists(cacheKeyPrefix+pid.String()))
	assert.Equal(t, time.Minute, mr.TTL(cacheKeyPrefix+pid.String()))

	got, err := cache.Get(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, cache := setupTestRedis(t)
	ctx := context.Background()
	pid := uuid.New()

	require.NoError(t, cache.Set(ctx, sampleRecord(pid)))
	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, pid)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_Invalidate(t *testing.T) {
	_, cache := setupTestRedis(t)
	ctx := context.Background()
	pid := uuid.New()

	require.NoError(t, cache.Set(ctx, sampleRecord(pid)))
	require.NoError(t, cache.Invalidate(ctx, pid))
	got, err := cache.Get(ctx, pid)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	mr, cache := setupTestRedis(t)
	pid := uuid.New()
	require.NoError(t, mr.Set(cacheKeyPrefix+pid.String(), "garbage"))
	_, err := cache.Get(context.Background(), pid)
	assert.Error(t, err)
}
