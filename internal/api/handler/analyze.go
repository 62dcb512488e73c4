// Package handler contains the HTTP handlers for the analysis API.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/daehyunkim/repopersona/internal/api/response"
	"github.com/daehyunkim/repopersona/internal/queue"
	"github.com/daehyunkim/repopersona/pkg/models"
	"github.com/daehyunkim/repopersona/pkg/repourl"
)

// JobCreator persists new analysis jobs.
type JobCreator interface {
	CreateJob(ctx context.Context, job *models.Job) error
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// Validation failures never create a job; a submission that passes validation
// is durably recorded before it is queued.
func NewAnalyzeHandler(jobs JobCreator, q *queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GitHubURL string `json:"github_url"`
			Email     string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.GitHubURL == "" || req.Email == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"github_url and email are required", nil)
			return
		}
		if _, _, ok := repourl.Parse(req.GitHubURL); !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"github_url must look like https://github.com/owner/repo", nil)
			return
		}
		if !repourl.ValidEmail(req.Email) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"email must be a valid address", nil)
			return
		}

		now := time.Now().UTC()
		job := &models.Job{
			ID:        uuid.New(),
			RepoURL:   req.GitHubURL,
			Email:     req.Email,
			Status:    models.JobStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := jobs.CreateJob(r.Context(), job); err != nil {
			slog.Error("creating job", "error", err, "repo_url", req.GitHubURL)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not accept the analysis request", nil)
			return
		}

		q.Enqueue(queue.Entry{ID: job.ID, RepoURL: job.RepoURL, Email: job.Email})
		slog.Info("job accepted", "job_id", job.ID, "repo_url", job.RepoURL)

		response.Accepted(w, analyzeResponse{
			JobID:         job.ID,
			Message:       "Analysis started! The result will be emailed to you shortly.",
			EstimatedTime: "30 seconds to 1 minute",
		})
	}
}

type analyzeResponse struct {
	JobID         uuid.UUID `json:"job_id"`
	Message       string    `json:"message"`
	EstimatedTime string    `json:"estimated_time"`
}
