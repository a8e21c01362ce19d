package notify

import (
	"context"
	"testing"
	"time"

	"tourgen/internal/domain"
)

func TestMemoryNotifierDeliversPerJob(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	a, cancelA, err := n.Subscribe(ctx, "job-a")
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	defer cancelA()
	b, cancelB, err := n.Subscribe(ctx, "job-b")
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	defer cancelB()

	event := JobEvent{JobID: "job-a", Status: domain.JobStatusProcessing, At: time.Now()}
	if err := n.Publish(ctx, event); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	select {
	case got := <-a:
		if got.JobID != "job-a" || got.Status != domain.JobStatusProcessing {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber for job-a received nothing")
	}

	select {
	case got := <-b:
		t.Errorf("subscriber for job-b received foreign event: %+v", got)
	default:
	}
}

func TestMemoryNotifierCancelClosesChannel(t *testing.T) {
	n := NewMemoryNotifier()
	events, cancel, err := n.Subscribe(context.Background(), "job-a")
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	cancel()
	if _, ok := <-events; ok {
		t.Error("expected closed channel after cancel")
	}
	// Cancel twice must be safe.
	cancel()

	if err := n.Publish(context.Background(), JobEvent{JobID: "job-a"}); err != nil {
		t.Errorf("publish after cancel returned error: %v", err)
	}
}

func TestMemoryNotifierNeverBlocksOnSlowConsumer(t *testing.T) {
	n := NewMemoryNotifier()
	_, cancel, err := n.Subscribe(context.Background(), "job-a")
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody drains the channel; publishes past the buffer drop.
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = n.Publish(context.Background(), JobEvent{JobID: "job-a"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow consumer")
	}
}

func TestEventFromJob(t *testing.T) {
	now := time.Now().UTC()
	job := &domain.GenerationJob{
		ID:           "job-1",
		OwnerID:      "user-1",
		Status:       domain.JobStatusFailed,
		ErrorMessage: "generation timed out",
		UpdatedAt:    now,
	}
	ev := EventFromJob(job)
	if ev.JobID != "job-1" || ev.OwnerID != "user-1" {
		t.Errorf("identity fields wrong: %+v", ev)
	}
	if ev.Status != domain.JobStatusFailed || ev.ErrorMessage != "generation timed out" {
		t.Errorf("status fields wrong: %+v", ev)
	}
	if !ev.At.Equal(now) {
		t.Errorf("expected At %s, got %s", now, ev.At)
	}
}
