package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisResult is the immutable output of one pipeline run. Exactly one job
// links to it through Job.ResultID, but it is readable on its own id so the
// share URL keeps working independently of the job record.
type AnalysisResult struct {
	ID          uuid.UUID   `db:"id"           json:"id"`
	RepoURL     string      `db:"repo_url"     json:"repo_url"`
	Email       string      `db:"email"        json:"email"`
	Personality Personality `db:"personality"  json:"personality"`
	Facts       RepoFacts   `db:"facts"        json:"facts"`
	AnalyzedAt  time.Time   `db:"analyzed_at"  json:"analyzed_at"`
	ShareURL    string      `db:"share_url"    json:"share_url"`
}
