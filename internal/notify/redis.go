package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "jobs:events:"

// RedisNotifier carries job events over redis pub/sub so subscribers on
// any API instance observe transitions applied by any writer.
type RedisNotifier struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func NewRedisNotifier(rdb *redis.Client, logger zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logger}
}

func (n *RedisNotifier) Publish(ctx context.Context, event JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, channelPrefix+event.JobID, payload).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, jobID string) (<-chan JobEvent, func(), error) {
	sub := n.rdb.Subscribe(ctx, channelPrefix+jobID)
	// Force the subscription onto the wire before events can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan JobEvent, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event JobEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.logger.Warn().Err(err).Str("job_id", jobID).Msg("notify: dropping malformed event")
				continue
			}
			select {
			case out <- event:
			default:
				// Best-effort stream: a stalled reader loses events and
				// is expected to re-fetch the job record.
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}

var _ Notifier = (*RedisNotifier)(nil)
