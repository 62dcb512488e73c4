package classify

import (
	"fmt"

	"github.com/daehyunkim/repopersona/internal/classify/anthropic"
	"github.com/daehyunkim/repopersona/internal/classify/mock"
	"github.com/daehyunkim/repopersona/internal/classify/ollama"
	"github.com/daehyunkim/repopersona/internal/config"
	"github.com/daehyunkim/repopersona/pkg/models"
)

// NewProvider constructs the configured classification provider. Called once
// at server startup.
func NewProvider(cfg config.AIConfig) (models.Classifier, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown classification provider %q: must be one of ollama, anthropic, mock", cfg.Provider)
	}
}
