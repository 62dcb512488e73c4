package store

import (
	"context"
	"errors"

	"github.com/daehyunkim/repopersona/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
// Job listing exists for diagnostics only; the pipeline itself is keyed by id.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
	ListPendingJobs(ctx context.Context) ([]*models.Job, error)

	SaveResult(ctx context.Context, result *models.AnalysisResult) error
	GetResult(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error)
}

// validTransitions fixes the monotonic job state machine: once a job leaves
// pending it can only reach exactly one terminal status.
var validTransitions = map[string][]string{
	models.JobStatusPending:    {models.JobStatusProcessing},
	models.JobStatusProcessing: {models.JobStatusCompleted, models.JobStatusFailed},
}

// ValidTransition reports whether a job may move from one status to another.
// Exported so test doubles can enforce the same machine the real store does.
func ValidTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// JobUpdate collects the optional fields of a status update.
type JobUpdate struct {
	ErrorMessage *string
	ResultID     *uuid.UUID
}

type JobUpdateOption func(*JobUpdate)

// WithErrorMessage records the human-readable failure reason on the job.
func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.ErrorMessage = &msg
	}
}

// WithResultID links the job to its analysis result.
func WithResultID(id uuid.UUID) JobUpdateOption {
	return func(p *JobUpdate) {
		p.ResultID = &id
	}
}
