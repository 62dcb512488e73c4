// Package notify delivers the finished analysis to the submitter. Delivery is
// best effort: a failed notification never changes the job outcome.
package notify

import (
	"context"

	"github.com/daehyunkim/repopersona/pkg/models"
)

// Notifier sends a completed analysis result to its recipient.
type Notifier interface {
	Deliver(ctx context.Context, result *models.AnalysisResult) error
}

// Noop discards notifications. Used when SMTP is not configured.
type Noop struct{}

func (Noop) Deliver(_ context.Context, _ *models.AnalysisResult) error { return nil }

var _ Notifier = Noop{}
