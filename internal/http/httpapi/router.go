package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tourgen/internal/http/handlers"
	"tourgen/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(app.Config.CORSAllowedOrigins))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/tours", func(r chi.Router) {
		r.Use(middleware.Auth(app.Config.JWTSecret))
		r.With(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)).Post("/", app.ToursCreate)
		r.Post("/check", app.TourCheck)
		r.Get("/{job_id}", app.TourGet)
		r.Get("/{job_id}/events", app.TourEvents)
	})

	r.Route("/internal/jobs", func(r chi.Router) {
		r.Use(middleware.ProducerAuth(app.Config.ProducerToken))
		r.Post("/{job_id}/processing", app.JobProcessing)
		r.Post("/{job_id}/result", app.JobResult)
	})

	return r
}
