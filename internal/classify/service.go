// Package classify turns collected repository facts into a Personality. It
// wraps an LLM provider with a timeout, response validation, and score
// clamping, and carries the deterministic rule-based fallback the worker uses
// when the provider is down.
package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daehyunkim/repopersona/pkg/models"
)

// Service wraps a provider and sanitizes everything it returns. It implements
// models.Classifier itself so the worker never talks to a raw provider.
type Service struct {
	provider models.Classifier
	timeout  time.Duration
}

// NewService creates a Service around provider. timeout bounds each inference
// call.
func NewService(provider models.Classifier, timeout time.Duration) *Service {
	return &Service{provider: provider, timeout: timeout}
}

func (s *Service) Name() string { return s.provider.Name() }

// Classify runs the provider under the configured timeout and validates the
// outcome. An archetype outside the taxonomy is an error, not a value that
// propagates; confidence and match score are clamped to [0, 100].
func (s *Service) Classify(ctx context.Context, facts models.RepoFacts) (models.Personality, error) {
	inferCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.provider.Classify(inferCtx, facts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.Personality{}, fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return models.Personality{}, err
	}

	if !p.Archetype.Valid() {
		return models.Personality{}, fmt.Errorf("%w: unknown archetype %q", ErrInvalidResponse, p.Archetype)
	}

	p.Confidence = clamp(p.Confidence)
	p.MatchScore = clamp(p.MatchScore)
	applyMeta(&p)

	return p, nil
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Compile-time check that Service implements Classifier.
var _ models.Classifier = (*Service)(nil)
