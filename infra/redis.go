package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tnqbao/gau-datagen-service/config"
)

// cancelFlagTTL bounds how long a cancellation flag can outlive its job.
const cancelFlagTTL = 24 * time.Hour

type RedisClient struct {
	Client *redis.Client
}

func InitRedisClient(cfg *config.EnvConfig) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return &RedisClient{Client: client}
}

func cancelKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:cancel:%s", jobID)
}

func progressKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:progress:%s", jobID)
}

// RequestCancel raises the cancellation flag for a running job. The worker
// polls the flag between chunks and aborts when it is set.
func (r *RedisClient) RequestCancel(ctx context.Context, jobID uuid.UUID) error {
	return r.Client.Set(ctx, cancelKey(jobID), "1", cancelFlagTTL).Err()
}

// IsCancelRequested reports whether a cancellation flag exists for the job.
func (r *RedisClient) IsCancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	n, err := r.Client.Exists(ctx, cancelKey(jobID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearCancel removes the cancellation flag once the job has settled.
func (r *RedisClient) ClearCancel(ctx context.Context, jobID uuid.UUID) error {
	return r.Client.Del(ctx, cancelKey(jobID)).Err()
}

// SetProgress mirrors the job's completion percentage so status reads do not
// have to wait for the next database flush.
func (r *RedisClient) SetProgress(ctx context.Context, jobID uuid.UUID, progress float64) error {
	return r.Client.Set(ctx, progressKey(jobID), progress, cancelFlagTTL).Err()
}

// GetProgress returns the mirrored progress, or ok=false when no mirror
// exists and the database value should be used instead.
func (r *RedisClient) GetProgress(ctx context.Context, jobID uuid.UUID) (float64, bool, error) {
	val, err := r.Client.Get(ctx, progressKey(jobID)).Float64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// ClearProgress drops the progress mirror for a settled job.
func (r *RedisClient) ClearProgress(ctx context.Context, jobID uuid.UUID) error {
	return r.Client.Del(ctx, progressKey(jobID)).Err()
}
