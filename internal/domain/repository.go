package domain

import (
	"context"
	"time"
)

// TransitionFields carries the status-dependent fields written together
// with a compare-and-swap. Nil pointers leave the column untouched.
type TransitionFields struct {
	ResultRef    *string
	ErrorMessage *string
	CompletedAt  *time.Time
}

// JobStore is the durable record of generation jobs. All mutation goes
// through CompareAndSwapStatus so a late producer callback racing the
// watchdog can only win once.
type JobStore interface {
	Create(ctx context.Context, job *GenerationJob) error
	// GetForOwner returns ErrNotFound both for absent jobs and for jobs
	// owned by someone else; the two are indistinguishable to callers.
	GetForOwner(ctx context.Context, jobID, ownerID string) (*GenerationJob, error)
	// CompareAndSwapStatus transitions jobID from expected to next and
	// returns the updated record, or ErrStaleStatus if the current
	// status no longer matches expected.
	CompareAndSwapStatus(ctx context.Context, jobID string, expected, next JobStatus, fields TransitionFields) (*GenerationJob, error)
	// ListActiveOlderThan returns pending/processing jobs created
	// strictly before the cutoff, in no particular order.
	ListActiveOlderThan(ctx context.Context, cutoff time.Time) ([]GenerationJob, error)
	// MarkRefunded flips credits_refunded exactly once; the bool is
	// false when the flag was already set.
	MarkRefunded(ctx context.Context, jobID string) (bool, error)
}

// CreditLedger is the authoritative balance store. Both operations are
// atomic at the storage layer; Credit is idempotent per job and
// returns ErrAlreadyRefunded when a credit entry already exists.
type CreditLedger interface {
	Debit(ctx context.Context, userID string, amount int, reason, jobID string) (int, error)
	Credit(ctx context.Context, userID string, amount int, reason, jobID string) (int, error)
	Balance(ctx context.Context, userID string) (int, error)
}

// Dispatcher hands a freshly created job to the external producer.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *GenerationJob) error
}
