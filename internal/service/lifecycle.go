package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"tourgen/internal/domain"
	"tourgen/internal/notify"
)

// Lifecycle applies producer-reported transitions and owns the shared
// refund path. Every transition goes through the store's compare-and-
// swap; side effects (refund, notification) run only after the
// transition has succeeded, so the loser of a race applies nothing.
type Lifecycle struct {
	store    domain.JobStore
	ledger   domain.CreditLedger
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewLifecycle(store domain.JobStore, ledger domain.CreditLedger, notifier notify.Notifier, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// MarkProcessing records that the producer accepted the job.
func (l *Lifecycle) MarkProcessing(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	job, err := l.store.CompareAndSwapStatus(ctx, jobID, domain.JobStatusPending, domain.JobStatusProcessing, domain.TransitionFields{})
	if err != nil {
		return nil, err
	}
	l.publish(ctx, job)
	return job, nil
}

// Complete records a successful result from the producer.
func (l *Lifecycle) Complete(ctx context.Context, jobID, resultRef string) (*domain.GenerationJob, error) {
	now := l.now().UTC()
	job, err := l.store.CompareAndSwapStatus(ctx, jobID, domain.JobStatusProcessing, domain.JobStatusCompleted, domain.TransitionFields{
		ResultRef:   &resultRef,
		CompletedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	l.publish(ctx, job)
	return job, nil
}

// Fail records a producer-reported failure and refunds the charge. A
// job the producer never marked processing is failed from pending.
func (l *Lifecycle) Fail(ctx context.Context, jobID, reason string) (*domain.GenerationJob, error) {
	job, err := l.FailFrom(ctx, jobID, domain.JobStatusProcessing, reason, ReasonProducerRefund)
	if errors.Is(err, domain.ErrStaleStatus) {
		job, err = l.FailFrom(ctx, jobID, domain.JobStatusPending, reason, ReasonProducerRefund)
	}
	return job, err
}

// FailFrom transitions expected -> failed and issues the compensating
// refund. Callers racing each other lose with ErrStaleStatus and must
// not apply side effects.
func (l *Lifecycle) FailFrom(ctx context.Context, jobID string, expected domain.JobStatus, errorMessage, refundReason string) (*domain.GenerationJob, error) {
	now := l.now().UTC()
	job, err := l.store.CompareAndSwapStatus(ctx, jobID, expected, domain.JobStatusFailed, domain.TransitionFields{
		ErrorMessage: &errorMessage,
		CompletedAt:  &now,
	})
	if err != nil {
		return nil, err
	}
	l.refund(ctx, job, refundReason)
	l.publish(ctx, job)
	return job, nil
}

// refund credits back the charge for a failed job at most once. The
// ledger entry is the idempotence point; the job flag mirrors it for
// reads. A failed credit call leaves the job failed-but-unrefunded and
// is surfaced for manual reconciliation, never retried inline.
func (l *Lifecycle) refund(ctx context.Context, job *domain.GenerationJob, reason string) {
	if job.CreditsCharged <= 0 || job.CreditsRefunded {
		return
	}
	_, err := l.ledger.Credit(ctx, job.OwnerID, job.CreditsCharged, reason, job.ID)
	if err != nil && !errors.Is(err, domain.ErrAlreadyRefunded) {
		l.logger.Error().Err(err).
			Str("job_id", job.ID).
			Str("owner_id", job.OwnerID).
			Int("amount", job.CreditsCharged).
			Str("reason", reason).
			Msg("lifecycle: refund failed, manual reconciliation required")
		return
	}
	flipped, err := l.store.MarkRefunded(ctx, job.ID)
	if err != nil {
		l.logger.Error().Err(err).Str("job_id", job.ID).Msg("lifecycle: mark refunded failed")
		return
	}
	if flipped {
		job.CreditsRefunded = true
	}
}

func (l *Lifecycle) publish(ctx context.Context, job *domain.GenerationJob) {
	if err := l.notifier.Publish(ctx, notify.EventFromJob(job)); err != nil {
		l.logger.Warn().Err(err).Str("job_id", job.ID).Msg("lifecycle: publish event failed")
	}
}
