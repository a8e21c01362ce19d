package service

import (
	"context"
	"sync"
	"time"

	"tourgen/internal/domain"
	"tourgen/internal/notify"
)

// memStore is an in-memory JobStore with real compare-and-swap
// semantics, so races between the watchdog and producer callbacks can
// be exercised without a database.
type memStore struct {
	mu        sync.Mutex
	jobs      map[string]*domain.GenerationJob
	createErr error
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*domain.GenerationJob)}
}

func (s *memStore) Create(_ context.Context, job *domain.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
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
	job.UpdatedAt = time.Now().UTC()
	if fields.ResultRef != nil {
		job.ResultRef = *fields.ResultRef
	}
	if fields.ErrorMessage != nil {
		job.ErrorMessage = *fields.ErrorMessage
	}
	if fields.CompletedAt != nil {
		completed := *fields.CompletedAt
		job.CompletedAt = &completed
	}
	copied := *job
	return &copied, nil
}

func (s *memStore) ListActiveOlderThan(_ context.Context, cutoff time.Time) ([]domain.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GenerationJob
	for _, job := range s.jobs {
		if job.Status.Active() && job.CreatedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *memStore) MarkRefunded(_ context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.CreditsRefunded {
		return false, nil
	}
	job.CreditsRefunded = true
	return true, nil
}

func (s *memStore) get(jobID string) *domain.GenerationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *memStore) setCreatedAt(jobID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.CreatedAt = at
	}
}

// memLedger mirrors the Postgres ledger contract: atomic conditional
// debit and at most one credit entry per job.
type memLedger struct {
	mu        sync.Mutex
	balances  map[string]int
	credited  map[string]bool
	creditErr error
}

func newMemLedger(balances map[string]int) *memLedger {
	if balances == nil {
		balances = make(map[string]int)
	}
	return &memLedger{balances: balances, credited: make(map[string]bool)}
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

func (l *memLedger) Credit(_ context.Context, userID string, amount int, _, jobID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.creditErr != nil {
		return 0, l.creditErr
	}
	if l.credited[jobID] {
		return 0, domain.ErrAlreadyRefunded
	}
	l.credited[jobID] = true
	l.balances[userID] += amount
	return l.balances[userID], nil
}

func (l *memLedger) Balance(_ context.Context, userID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *memLedger) creditCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, issued := range l.credited {
		if issued {
			n++
		}
	}
	return n
}

// recordingNotifier captures published events in order.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.JobEvent
}

func (n *recordingNotifier) Publish(_ context.Context, event notify.JobEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Subscribe(_ context.Context, _ string) (<-chan notify.JobEvent, func(), error) {
	ch := make(chan notify.JobEvent)
	return ch, func() { close(ch) }, nil
}

func (n *recordingNotifier) recorded() []notify.JobEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.JobEvent, len(n.events))
	copy(out, n.events)
	return out
}

// memDispatcher records dispatched jobs and can be told to fail.
type memDispatcher struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (d *memDispatcher) Dispatch(_ context.Context, job *domain.GenerationJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job.ID)
	return nil
}

func (d *memDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}
