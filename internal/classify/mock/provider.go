package mock

import (
	"context"

	"github.com/daehyunkim/repopersona/pkg/models"
)

// MockProvider satisfies models.Classifier for testing.
type MockProvider struct {
	Name_        string
	ClassifyFunc func(ctx context.Context, facts models.RepoFacts) (models.Personality, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Classify(ctx context.Context, facts models.RepoFacts) (models.Personality, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, facts)
	}
	return models.Personality{}, nil
}

// NewMockProvider returns a MockProvider with a sensible default classification.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		ClassifyFunc: func(_ context.Context, facts models.RepoFacts) (models.Personality, error) {
			return models.Personality{
				Archetype:    models.ArchetypeGPT35,
				Confidence:   85,
				OneLiner:     "A dependable workhorse that gets things done",
				Traits:       []string{"pragmatic", "consistent", "approachable"},
				Strengths:    []string{"steady commit cadence", "readable code"},
				FunnyComment: "Would merge its own PRs if it could",
				MatchScore:   85,
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		ClassifyFunc: func(_ context.Context, _ models.RepoFacts) (models.Personality, error) {
			return models.Personality{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		ClassifyFunc: func(ctx context.Context, _ models.RepoFacts) (models.Personality, error) {
			<-ctx.Done()
			return models.Personality{}, ctx.Err()
		},
	}
}

// Compile-time check that MockProvider implements Classifier.
var _ models.Classifier = (*MockProvider)(nil)
