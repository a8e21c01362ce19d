package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tourgen/internal/domain"
)

// dispatchEnvelope is the wire format pushed to the producer queue. The
// external renderer consumes the list and reports back through the
// internal callback endpoints.
type dispatchEnvelope struct {
	JobID           string   `json:"job_id"`
	OwnerID         string   `json:"owner_id"`
	SourceAssets    []string `json:"source_assets"`
	DurationSeconds int      `json:"duration_seconds"`
	Quality         string   `json:"quality"`
}

// RedisDispatcher hands jobs to the external producer over a redis
// list. Fire-and-forget: a push failure leaves the job pending and the
// watchdog reclaims it if nothing ever picks it up.
type RedisDispatcher struct {
	rdb       *redis.Client
	queueName string
}

func NewRedisDispatcher(rdb *redis.Client, queueName string) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb, queueName: queueName}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, job *domain.GenerationJob) error {
	payload, err := json.Marshal(dispatchEnvelope{
		JobID:           job.ID,
		OwnerID:         job.OwnerID,
		SourceAssets:    job.SourceAssets,
		DurationSeconds: job.DurationSeconds,
		Quality:         job.Quality,
	})
	if err != nil {
		return fmt.Errorf("dispatch: marshal job %s: %w", job.ID, err)
	}
	if err := d.rdb.RPush(ctx, d.queueName, payload).Err(); err != nil {
		return fmt.Errorf("dispatch: push job %s: %w", job.ID, err)
	}
	return nil
}

var _ domain.Dispatcher = (*RedisDispatcher)(nil)
