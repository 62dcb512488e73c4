package notify

import (
	"context"

	"github.com/daehyunkim/repopersona/pkg/models"
)

// MockNotifier satisfies Notifier for testing.
type MockNotifier struct {
	DeliverFunc func(ctx context.Context, result *models.AnalysisResult) error
}

func (m *MockNotifier) Deliver(ctx context.Context, result *models.AnalysisResult) error {
	if m.DeliverFunc != nil {
		return m.DeliverFunc(ctx, result)
	}
	return nil
}

var _ Notifier = (*MockNotifier)(nil)
