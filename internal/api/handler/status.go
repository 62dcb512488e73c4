package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/daehyunkim/repopersona/internal/api/response"
	"github.com/daehyunkim/repopersona/internal/github"
	"github.com/daehyunkim/repopersona/internal/worker"
)

// WorkerStatus reports the state of the background pipeline.
type WorkerStatus interface {
	Status() worker.Status
}

// Pinger is implemented by classification providers that can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusDeps are the collaborators the status endpoint inspects. Classifier
// is nil for providers without a health probe.
type StatusDeps struct {
	Worker     WorkerStatus
	Classifier Pinger
	Provider   string
	GitHub     github.Client
	Authorized bool
}

// NewStatusHandler returns an http.HandlerFunc for GET /api/v1/status.
// Collaborator probes are diagnostics; their failures degrade the report,
// never the response status.
func NewStatusHandler(deps StatusDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := map[string]any{}

		classifierState := "unknown"
		if deps.Classifier != nil {
			classifierState = "connected"
			if err := deps.Classifier.Ping(r.Context()); err != nil {
				classifierState = "disconnected"
			}
		}
		services[deps.Provider] = classifierState

		if deps.Authorized {
			if rl, err := deps.GitHub.RateLimit(r.Context()); err == nil {
				services["github"] = map[string]any{
					"remaining": rl.Remaining,
					"reset_at":  rl.ResetAt.UTC().Format(time.RFC3339),
				}
			} else {
				services["github"] = "unreachable"
			}
		} else {
			services["github"] = "not authenticated"
		}

		response.JSON(w, statusResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Worker:    deps.Worker.Status(),
			Services:  services,
		})
	}
}

type statusResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Worker    worker.Status  `json:"worker"`
	Services  map[string]any `json:"services"`
}
