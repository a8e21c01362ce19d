package httpapi

import (
	"context"
	"sync"
	"time"

	"tourgen/internal/domain"
)

// Compact in-memory stand-ins; the router tests only exercise wiring,
// not storage semantics.
type memStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.GenerationJob
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*domain.GenerationJob)}
}

func (s *memStore) Create(_ context.Context, job *domain.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memStore) GetForOwner(_ context.Context, jobID, ownerID string) (*domain.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *memStore) CompareAndSwapStatus(_ context.Context, jobID string, expected, next domain.JobStatus, fields domain.TransitionFields) (*domain.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status != expected {
		return nil, domain.ErrStaleStatus
	}
	job.Status = next
	if fields.ResultRef != nil {
		job.ResultRef = *fields.ResultRef
	}
	if fields.ErrorMessage != nil {
		job.ErrorMessage = *fields.ErrorMessage
	}
	copied := *job
	return &copied, nil
}

func (s *memStore) ListActiveOlderThan(context.Context, time.Time) ([]domain.GenerationJob, error) {
	return nil, nil
}

func (s *memStore) MarkRefunded(context.Context, string) (bool, error) { return false, nil }

type memLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]int)}
}

func (l *memLedger) Debit(_ context.Context, userID string, amount int, _, _ string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amount {
		return 0, domain.ErrInsufficientFunds
	}
	l.balances[userID] -= amount
	return l.balances[userID], nil
}

func (l *memLedger) Credit(_ context.Context, userID string, amount int, _, _ string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	return l.balances[userID], nil
}

func (l *memLedger) Balance(_ context.Context, userID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, *domain.GenerationJob) error { return nil }
