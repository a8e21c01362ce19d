package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"tourgen/internal/domain"
	"tourgen/internal/infra"
	"tourgen/internal/middleware"
	"tourgen/internal/notify"
	"tourgen/internal/service"
)

// TourSubmitter accepts a generation request on behalf of a user.
type TourSubmitter interface {
	Submit(ctx context.Context, ownerID string, req domain.TourRequest) (*domain.GenerationJob, int, error)
}

// JobChecker answers explicit status checks, reclaiming stale jobs.
type JobChecker interface {
	CheckJob(ctx context.Context, ownerID, jobID string) (*service.CheckResult, error)
}

// JobLifecycle applies producer-reported transitions.
type JobLifecycle interface {
	MarkProcessing(ctx context.Context, jobID string) (*domain.GenerationJob, error)
	Complete(ctx context.Context, jobID, resultRef string) (*domain.GenerationJob, error)
	Fail(ctx context.Context, jobID, reason string) (*domain.GenerationJob, error)
}

// App bundles the handler dependencies.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	Jobs      domain.JobStore
	Submitter TourSubmitter
	Checker   JobChecker
	Lifecycle JobLifecycle
	Notifier  notify.Notifier
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
