package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daehyunkim/repopersona/internal/api/response"
	"github.com/daehyunkim/repopersona/internal/store"
	"github.com/daehyunkim/repopersona/pkg/models"
)

// JobGetter loads jobs by id.
type JobGetter interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// NewJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewJobHandler(jobs JobGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"jobID must be a valid UUID", nil)
			return
		}

		job, err := jobs.GetJob(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
				return
			}
			slog.Error("loading job", "error", err, "job_id", id)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		progress, message := Progress(job)
		response.JSON(w, jobResponse{
			Job:      job,
			Progress: progress,
			Message:  message,
		})
	}
}

type jobResponse struct {
	*models.Job
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// Progress projects a job status onto a percentage and a human message for
// polling clients. Same job state, same projection.
func Progress(job *models.Job) (int, string) {
	switch job.Status {
	case models.JobStatusPending:
		return 10, "Waiting in queue"
	case models.JobStatusProcessing:
		return 50, "Analyzing repository"
	case models.JobStatusCompleted:
		return 100, "Analysis complete"
	case models.JobStatusFailed:
		msg := "Analysis failed"
		if job.ErrorMessage != nil && *job.ErrorMessage != "" {
			msg = *job.ErrorMessage
		}
		return 0, msg
	default:
		return 0, "Unknown status"
	}
}
