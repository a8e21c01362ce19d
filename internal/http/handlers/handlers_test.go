package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tourgen/internal/domain"
	"tourgen/internal/middleware"
	"tourgen/internal/notify"
	"tourgen/internal/service"
)

// stubJobStore serves only owner-scoped reads; handlers never hit the
// other store methods directly.
type stubJobStore struct {
	jobs map[string]*domain.GenerationJob
}

func (s *stubJobStore) GetForOwner(_ context.Context, jobID, ownerID string) (*domain.GenerationJob, error) {
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *stubJobStore) Create(context.Context, *domain.GenerationJob) error { return nil }

func (s *stubJobStore) CompareAndSwapStatus(context.Context, string, domain.JobStatus, domain.JobStatus, domain.TransitionFields) (*domain.GenerationJob, error) {
	return nil, domain.ErrStaleStatus
}

func (s *stubJobStore) ListActiveOlderThan(context.Context, time.Time) ([]domain.GenerationJob, error) {
	return nil, nil
}

func (s *stubJobStore) MarkRefunded(context.Context, string) (bool, error) { return false, nil }

type stubSubmitter struct {
	job     *domain.GenerationJob
	balance int
	err     error
}

func (s *stubSubmitter) Submit(_ context.Context, _ string, _ domain.TourRequest) (*domain.GenerationJob, int, error) {
	return s.job, s.balance, s.err
}

type stubChecker struct {
	result *service.CheckResult
	err    error
}

func (s *stubChecker) CheckJob(context.Context, string, string) (*service.CheckResult, error) {
	return s.result, s.err
}

type stubLifecycle struct {
	job *domain.GenerationJob
	err error

	completedWith string
	failedWith    string
}

func (s *stubLifecycle) MarkProcessing(_ context.Context, _ string) (*domain.GenerationJob, error) {
	return s.job, s.err
}

func (s *stubLifecycle) Complete(_ context.Context, _ string, resultRef string) (*domain.GenerationJob, error) {
	s.completedWith = resultRef
	return s.job, s.err
}

func (s *stubLifecycle) Fail(_ context.Context, _ string, reason string) (*domain.GenerationJob, error) {
	s.failedWith = reason
	return s.job, s.err
}

func testApp() *App {
	return &App{
		Logger:   zerolog.Nop(),
		Jobs:     &stubJobStore{jobs: map[string]*domain.GenerationJob{}},
		Notifier: notify.NewMemoryNotifier(),
	}
}

func testJob(status domain.JobStatus) *domain.GenerationJob {
	now := time.Now().UTC()
	return &domain.GenerationJob{
		ID:              "job-1",
		OwnerID:         "user-1",
		Status:          status,
		SourceAssets:    []string{"s3://listings/1/a.jpg"},
		DurationSeconds: 30,
		Quality:         "standard",
		CreditsCharged:  30,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// decorate adds a user identity and, when jobID is non-empty, the chi
// URL parameter the handler reads.
func decorate(req *http.Request, userID, jobID string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = middleware.ContextWithUserID(ctx, userID)
	}
	if jobID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("job_id", jobID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
