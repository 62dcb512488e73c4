package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daehyunkim/repopersona/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, repo_url, email, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.RepoURL, job.Email, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var j models.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, repo_url, email, status, result_id, error_message, completed_at, created_at, updated_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.RepoURL, &j.Email, &j.Status, &j.ResultID, &j.ErrorMessage,
		&j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &JobUpdate{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	if !ValidTransition(currentStatus, status) {
		return fmt.Errorf("invalid job status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.ResultID != nil {
		query += fmt.Sprintf(", result_id = $%d", argIdx)
		args = append(args, *params.ResultID)
		argIdx++
	}

	query += " WHERE id = $1"

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPendingJobs(ctx context.Context) ([]*models.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, repo_url, email, status, result_id, error_message, completed_at, created_at, updated_at
		 FROM jobs WHERE status = $1 ORDER BY created_at ASC`, models.JobStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.RepoURL, &j.Email, &j.Status, &j.ResultID, &j.ErrorMessage,
			&j.CompletedAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// --- Results ---

func (s *PostgresStore) SaveResult(ctx context.Context, result *models.AnalysisResult) error {
	personality, err := json.Marshal(result.Personality)
	if err != nil {
		return fmt.Errorf("marshal personality: %w", err)
	}
	facts, err := json.Marshal(result.Facts)
	if err != nil {
		return fmt.Errorf("marshal facts: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO results (id, repo_url, email, personality, facts, analyzed_at, share_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.ID, result.RepoURL, result.Email, personality, facts,
		result.AnalyzedAt, result.ShareURL)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	var r models.AnalysisResult
	var personality, facts []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, repo_url, email, personality, facts, analyzed_at, share_url
		 FROM results WHERE id = $1`, id,
	).Scan(&r.ID, &r.RepoURL, &r.Email, &personality, &facts, &r.AnalyzedAt, &r.ShareURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}

	if err := json.Unmarshal(personality, &r.Personality); err != nil {
		return nil, fmt.Errorf("unmarshal personality: %w", err)
	}
	if err := json.Unmarshal(facts, &r.Facts); err != nil {
		return nil, fmt.Errorf("unmarshal facts: %w", err)
	}
	return &r, nil
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
