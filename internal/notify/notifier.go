package notify

import (
	"context"
	"sync"
	"time"

	"tourgen/internal/domain"
)

// JobEvent is one status-change notification. Delivery is best-effort:
// consumers must re-fetch the job record as the source of truth after a
// reconnect or a local timeout.
type JobEvent struct {
	JobID        string           `json:"job_id"`
	OwnerID      string           `json:"owner_id"`
	Status       domain.JobStatus `json:"status"`
	ResultRef    string           `json:"result_ref,omitempty"`
	ErrorMessage string           `json:"error,omitempty"`
	At           time.Time        `json:"at"`
}

// EventFromJob builds the notification for a job's current state.
func EventFromJob(job *domain.GenerationJob) JobEvent {
	return JobEvent{
		JobID:        job.ID,
		OwnerID:      job.OwnerID,
		Status:       job.Status,
		ResultRef:    job.ResultRef,
		ErrorMessage: job.ErrorMessage,
		At:           job.UpdatedAt,
	}
}

// Notifier propagates job-state changes to subscribed clients. Publish
// never blocks on slow consumers; missed events are acceptable.
type Notifier interface {
	Publish(ctx context.Context, event JobEvent) error
	// Subscribe opens a per-job event channel. The returned func
	// releases the subscription and closes the channel.
	Subscribe(ctx context.Context, jobID string) (<-chan JobEvent, func(), error)
}

const subscriberBuffer = 8

// MemoryNotifier fans events out to in-process subscribers. It backs
// tests and single-node deployments; multi-node deployments use the
// redis notifier so every API instance sees every transition.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[string]map[chan JobEvent]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[string]map[chan JobEvent]struct{})}
}

func (n *MemoryNotifier) Publish(_ context.Context, event JobEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[event.JobID] {
		select {
		case ch <- event:
		default:
			// Slow consumer: drop rather than block the writer.
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(_ context.Context, jobID string) (<-chan JobEvent, func(), error) {
	ch := make(chan JobEvent, subscriberBuffer)
	n.mu.Lock()
	set, ok := n.subs[jobID]
	if !ok {
		set = make(map[chan JobEvent]struct{})
		n.subs[jobID] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs[jobID], ch)
			if len(n.subs[jobID]) == 0 {
				delete(n.subs, jobID)
			}
			n.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

var _ Notifier = (*MemoryNotifier)(nil)
