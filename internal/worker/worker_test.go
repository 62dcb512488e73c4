package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daehyunkim/repopersona/internal/cache"
	"github.com/daehyunkim/repopersona/internal/classify/mock"
	"github.com/daehyunkim/repopersona/internal/github"
	"github.com/daehyunkim/repopersona/internal/notify"
	"github.com/daehyunkim/repopersona/internal/queue"
	"github.com/daehyunkim/repopersona/internal/store"
	"github.com/daehyunkim/repopersona/pkg/models"
)

// --- fakes ---

type fakeStore struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*models.Job
	results map[uuid.UUID]*models.AnalysisResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:    make(map[uuid.UUID]*models.Job),
		results: make(map[uuid.UUID]*models.AnalysisResult),
	}
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

func (s *fakeStore) CreateJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return j, nil
}

func (s *fakeStore) UpdateJobStatus(_ context.Context, id uuid.UUID, status string, opts ...store.JobUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	// Same transition guard as the real store, so ordering bugs in the
	// worker surface here instead of only against Postgres.
	if !store.ValidTransition(j.Status, status) {
		return fmt.Errorf("invalid job status transition: %s -> %s", j.Status, status)
	}
	j.Status = status
	var u store.JobUpdate
	for _, opt := range opts {
		opt(&u)
	}
	if u.ErrorMessage != nil {
		j.ErrorMessage = u.ErrorMessage
	}
	if u.ResultID != nil {
		j.ResultID = u.ResultID
	}
	return nil
}

func (s *fakeStore) ListPendingJobs(_ context.Context) ([]*models.Job, error) { return nil, nil }

func (s *fakeStore) SaveResult(_ context.Context, result *models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = result
	return nil
}

func (s *fakeStore) GetResult(_ context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) job(t *testing.T, id uuid.UUID) *models.Job {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		t.Fatalf("job %s not in store", id)
	}
	cp := *j
	return &cp
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Keys(_ context.Context, _ string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (c *memCache) Ping(_ context.Context) error { return nil }

func (c *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

type fakeGitHub struct {
	mu         sync.Mutex
	fetchCalls int
	facts      models.RepoFacts
	err        error
}

func (g *fakeGitHub) Fetch(_ context.Context, owner, repo string) (models.RepoFacts, error) {
	g.mu.Lock()
	g.fetchCalls++
	g.mu.Unlock()
	if g.err != nil {
		return models.RepoFacts{}, g.err
	}
	facts := g.facts
	facts.Owner = owner
	facts.Repo = repo
	return facts, nil
}

func (g *fakeGitHub) RateLimit(_ context.Context) (github.RateLimit, error) {
	return github.RateLimit{Remaining: 5000}, nil
}

func (g *fakeGitHub) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetchCalls
}

// --- fixture ---

type fixture struct {
	worker *Worker
	queue  *queue.Queue
	store  *fakeStore
	github *fakeGitHub
	mock   *mock.MockProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		queue: queue.New(),
		store: newFakeStore(),
		github: &fakeGitHub{facts: models.RepoFacts{
			Name:     "widget",
			Language: "Go",
			Stars:    42,
		}},
		mock: mock.NewMockProvider(),
	}
	f.worker = New(
		f.queue,
		f.store,
		cache.NewRepoCache(newMemCache(), 24*time.Hour),
		f.github,
		f.mock,
		notify.Noop{},
		"http://localhost:3000",
		5*time.Second,
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
	)
	return f
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func (f *fixture) submit(t *testing.T, repoURL string) uuid.UUID {
	t.Helper()
	job := &models.Job{ID: uuid.New(), RepoURL: repoURL, Email: "dev@example.com", Status: models.JobStatusPending}
	if err := f.store.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("creating job: %v", err)
	}
	f.queue.Enqueue(queue.Entry{ID: job.ID, RepoURL: repoURL, Email: job.Email})
	return job.ID
}

// --- tests ---

func TestProcessNext_CompletesJob(t *testing.T) {
	f := newFixture(t)
	jobID := f.submit(t, "https://github.com/acme/widget")

	f.worker.processNext(context.Background())

	job := f.store.job(t, jobID)
	if job.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %v)", job.Status, job.ErrorMessage)
	}
	if job.ResultID == nil {
		t.Fatal("expected result linked to job")
	}

	result, err := f.store.GetResult(context.Background(), *job.ResultID)
	if err != nil {
		t.Fatalf("result not stored: %v", err)
	}
	if result.Personality.Archetype != models.ArchetypeGPT35 {
		t.Errorf("unexpected archetype %q", result.Personality.Archetype)
	}
	if result.ShareURL != "http://localhost:3000/result/"+result.ID.String() {
		t.Errorf("unexpected share URL %q", result.ShareURL)
	}
	if f.queue.Size() != 0 || f.queue.InFlightCount() != 0 {
		t.Errorf("expected queue drained, size=%d inflight=%d", f.queue.Size(), f.queue.InFlightCount())
	}
}

func TestProcessNext_EmptyQueueIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.worker.processNext(context.Background())
	if f.github.calls() != 0 {
		t.Errorf("expected no collaborator calls on empty queue")
	}
}

func TestProcessNext_InvalidURLFailsJob(t *testing.T) {
	f := newFixture(t)
	jobID := f.submit(t, "https://gitlab.com/acme/widget")

	f.worker.processNext(context.Background())

	job := f.store.job(t, jobID)
	if job.Status != models.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.ErrorMessage == nil || *job.ErrorMessage == "" {
		t.Error("expected an error message on the job")
	}
	if f.github.calls() != 0 {
		t.Error("expected no fetch for an invalid URL")
	}
}

func TestProcessNext_FetchFailureFailsJobWithReason(t *testing.T) {
	f := newFixture(t)
	f.github.err = github.ErrRepoNotFound
	jobID := f.submit(t, "https://github.com/acme/missing")

	f.worker.processNext(context.Background())

	job := f.store.job(t, jobID)
	if job.Status != models.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.ErrorMessage == nil || !strings.Contains(*job.ErrorMessage, "acme/missing") {
		t.Errorf("expected error message naming the repository, got %v", job.ErrorMessage)
	}
	if len(f.store.results) != 0 {
		t.Error("expected no result for a failed job")
	}
	if f.queue.InFlightCount() != 0 {
		t.Error("expected queue slot released after failure")
	}
}

func TestProcessNext_ClassifierFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.github.facts = models.RepoFacts{
		Name:          "widget",
		Language:      "Go",
		Stars:         10,
		ReadmeContent: strings.Repeat("x", 6000),
		HasTests:      true,
	}
	f.mock.ClassifyFunc = func(_ context.Context, _ models.RepoFacts) (models.Personality, error) {
		return models.Personality{}, errors.New("connection refused")
	}
	jobID := f.submit(t, "https://github.com/acme/widget")

	f.worker.processNext(context.Background())

	job := f.store.job(t, jobID)
	if job.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed via fallback, got %s (error: %v)", job.Status, job.ErrorMessage)
	}
	result, err := f.store.GetResult(context.Background(), *job.ResultID)
	if err != nil {
		t.Fatalf("result not stored: %v", err)
	}
	// Long readme plus tests selects the thorough archetype in the rulebook.
	if result.Personality.Archetype != models.ArchetypeGPT4 {
		t.Errorf("expected fallback archetype GPT-4, got %q", result.Personality.Archetype)
	}
	if result.Personality.Confidence != 70 {
		t.Errorf("expected fallback confidence 70, got %d", result.Personality.Confidence)
	}
}

func TestProcessNext_CacheHitSkipsCollaborators(t *testing.T) {
	f := newFixture(t)
	classifyCalls := 0
	orig := f.mock.ClassifyFunc
	f.mock.ClassifyFunc = func(ctx context.Context, facts models.RepoFacts) (models.Personality, error) {
		classifyCalls++
		return orig(ctx, facts)
	}

	first := f.submit(t, "https://github.com/acme/widget")
	f.worker.processNext(context.Background())

	second := f.submit(t, "https://github.com/acme/widget")
	f.worker.processNext(context.Background())

	if f.github.calls() != 1 {
		t.Errorf("expected a single fetch across both jobs, got %d", f.github.calls())
	}
	if classifyCalls != 1 {
		t.Errorf("expected a single classification across both jobs, got %d", classifyCalls)
	}

	firstJob := f.store.job(t, first)
	secondJob := f.store.job(t, second)
	if secondJob.Status != models.JobStatusCompleted {
		t.Fatalf("expected second job completed, got %s", secondJob.Status)
	}
	if *firstJob.ResultID == *secondJob.ResultID {
		t.Error("expected distinct result ids per job")
	}

	r1, _ := f.store.GetResult(context.Background(), *firstJob.ResultID)
	r2, _ := f.store.GetResult(context.Background(), *secondJob.ResultID)
	if r1.Personality.Archetype != r2.Personality.Archetype {
		t.Error("expected identical classification from cache")
	}
	if r1.Facts.Name != r2.Facts.Name || r1.Facts.Stars != r2.Facts.Stars {
		t.Error("expected identical facts from cache")
	}
}

func TestProcessNext_NotificationFailureDoesNotFailJob(t *testing.T) {
	f := newFixture(t)
	delivered := 0
	f.worker.notifier = &notify.MockNotifier{
		DeliverFunc: func(_ context.Context, _ *models.AnalysisResult) error {
			delivered++
			return errors.New("smtp: connection refused")
		},
	}
	jobID := f.submit(t, "https://github.com/acme/widget")

	f.worker.processNext(context.Background())

	if delivered != 1 {
		t.Errorf("expected one delivery attempt, got %d", delivered)
	}
	job := f.store.job(t, jobID)
	if job.Status != models.JobStatusCompleted {
		t.Errorf("expected completed despite notification failure, got %s", job.Status)
	}
}

func TestRun_ProcessesImmediatelyAndStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.worker.interval = time.Hour // only the immediate pass should run
	jobID := f.submit(t, "https://github.com/acme/widget")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.worker.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		if f.store.job(t, jobID).Terminal() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for immediate pass")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if st := f.worker.Status(); !st.Running {
		t.Error("expected worker to report running")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
	if st := f.worker.Status(); st.Running {
		t.Error("expected worker to report stopped")
	}
}
