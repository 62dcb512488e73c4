// Package worker runs the background analysis pipeline. A single worker polls
// the in-memory queue, collects repository facts, classifies them, persists
// the result, and notifies the submitter.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/daehyunkim/repopersona/internal/cache"
	"github.com/daehyunkim/repopersona/internal/classify"
	"github.com/daehyunkim/repopersona/internal/github"
	"github.com/daehyunkim/repopersona/internal/notify"
	"github.com/daehyunkim/repopersona/internal/queue"
	"github.com/daehyunkim/repopersona/internal/store"
	"github.com/daehyunkim/repopersona/pkg/models"
	"github.com/daehyunkim/repopersona/pkg/repourl"
)

// Status is a snapshot of the worker for the status endpoint.
type Status struct {
	Running   bool `json:"running"`
	QueueSize int  `json:"queue_size"`
	InFlight  int  `json:"in_flight"`
}

// Worker drains the analysis queue one job at a time.
type Worker struct {
	queue      *queue.Queue
	store      store.Store
	repoCache  *cache.RepoCache
	github     github.Client
	classifier models.Classifier
	notifier   notify.Notifier
	appURL     string
	interval   time.Duration
	logger     *slog.Logger

	running atomic.Bool
}

func New(
	q *queue.Queue,
	st store.Store,
	rc *cache.RepoCache,
	gh github.Client,
	classifier models.Classifier,
	notifier notify.Notifier,
	appURL string,
	interval time.Duration,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		queue:      q,
		store:      st,
		repoCache:  rc,
		github:     gh,
		classifier: classifier,
		notifier:   notifier,
		appURL:     appURL,
		interval:   interval,
		logger:     logger,
	}
}

// Run polls the queue until ctx is cancelled. It processes one entry
// immediately, then one per tick. A dequeued entry is always finished on the
// queue via Complete or Fail before the next tick picks anything up.
func (w *Worker) Run(ctx context.Context) {
	w.running.Store(true)
	defer w.running.Store(false)

	w.logger.Info("analysis worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.processNext(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("analysis worker stopped")
			return
		case <-ticker.C:
			w.processNext(ctx)
		}
	}
}

// Status reports whether the loop is running and how deep the queue is.
func (w *Worker) Status() Status {
	return Status{
		Running:   w.running.Load(),
		QueueSize: w.queue.Size(),
		InFlight:  w.queue.InFlightCount(),
	}
}

// processNext handles at most one queue entry. Every failure path records
// exactly one error message on the job and releases the queue slot.
func (w *Worker) processNext(ctx context.Context) {
	entry, ok := w.queue.Dequeue()
	if !ok {
		return
	}

	log := w.logger.With("job_id", entry.ID, "repo_url", entry.RepoURL)
	log.Info("processing job")

	if err := w.process(ctx, entry, log); err != nil {
		log.Error("job failed", "error", err)
		if updErr := w.store.UpdateJobStatus(ctx, entry.ID, models.JobStatusFailed,
			store.WithErrorMessage(err.Error())); updErr != nil {
			log.Error("recording job failure", "error", updErr)
		}
		w.queue.Fail(entry.ID)
		return
	}

	w.queue.Complete(entry.ID)
	log.Info("job completed")
}

func (w *Worker) process(ctx context.Context, entry queue.Entry, log *slog.Logger) error {
	// Mark processing before anything can fail: the status machine only
	// reaches failed from processing, so a job that fails while still
	// pending could never record its terminal state.
	if err := w.store.UpdateJobStatus(ctx, entry.ID, models.JobStatusProcessing); err != nil {
		return fmt.Errorf("marking job processing: %w", err)
	}

	owner, repo, ok := repourl.Parse(entry.RepoURL)
	if !ok {
		return fmt.Errorf("invalid GitHub repository URL: %s", entry.RepoURL)
	}

	var facts models.RepoFacts
	var personality models.Personality

	if record, hit := w.repoCache.Get(ctx, owner, repo); hit {
		log.Info("cache hit", "owner", owner, "repo", repo)
		facts = record.Facts
		personality = record.Personality
	} else {
		log.Info("collecting repository facts", "owner", owner, "repo", repo)
		var err error
		facts, err = w.github.Fetch(ctx, owner, repo)
		if err != nil {
			return fmt.Errorf("fetching repository %s/%s: %w", owner, repo, err)
		}

		log.Info("classifying repository", "provider", w.classifier.Name())
		personality, err = w.classifier.Classify(ctx, facts)
		if err != nil {
			// A provider outage degrades to local rules rather than
			// failing the job.
			log.Warn("classifier unavailable, using fallback rules", "error", err)
			personality = classify.Fallback(facts)
		}

		w.repoCache.Set(ctx, owner, repo, facts, personality)
	}

	resultID := uuid.New()
	result := &models.AnalysisResult{
		ID:          resultID,
		RepoURL:     entry.RepoURL,
		Email:       entry.Email,
		Personality: personality,
		Facts:       facts,
		AnalyzedAt:  time.Now().UTC(),
		ShareURL:    fmt.Sprintf("%s/result/%s", w.appURL, resultID),
	}

	if err := w.store.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("saving analysis result: %w", err)
	}

	if err := w.store.UpdateJobStatus(ctx, entry.ID, models.JobStatusCompleted,
		store.WithResultID(resultID)); err != nil {
		return fmt.Errorf("marking job completed: %w", err)
	}

	// Notification failure never changes the job outcome.
	if err := w.notifier.Deliver(ctx, result); err != nil {
		log.Warn("result notification failed", "email", entry.Email, "error", err)
	}

	return nil
}
