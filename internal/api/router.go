package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/daehyunkim/repopersona/internal/api/middleware"
	"github.com/daehyunkim/repopersona/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	AnalyzeHandler http.HandlerFunc
	JobHandler     http.HandlerFunc
	ResultHandler  http.HandlerFunc
	StatusHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/api/v1/status", orNotImplemented(deps.StatusHandler))

	// Submission is the only write path; it alone is rate limited.
	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}
		r.Post("/api/v1/analyze", orNotImplemented(deps.AnalyzeHandler))
	})

	r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.JobHandler))
	r.Get("/api/v1/results/{resultID}", orNotImplemented(deps.ResultHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
