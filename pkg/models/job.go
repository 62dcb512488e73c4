package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job tracks one async analysis request. The API returns a job id on
// POST /api/v1/analyze; the client polls GET /api/v1/jobs/{id} until the
// status is completed or failed, then follows ResultID.
//
// Status moves pending -> processing -> completed|failed, driven only by the
// worker. CompletedAt is set exactly when the job reaches a terminal status;
// ResultID is set only on completion. Jobs are never deleted.
type Job struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	RepoURL      string     `db:"repo_url"      json:"repo_url"`
	Email        string     `db:"email"         json:"email"`
	Status       string     `db:"status"        json:"status"`
	ResultID     *uuid.UUID `db:"result_id"     json:"result_id,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
