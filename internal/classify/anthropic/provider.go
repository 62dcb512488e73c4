// Package anthropic implements the classification provider on the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/daehyunkim/repopersona/internal/classify/prompt"
	"github.com/daehyunkim/repopersona/internal/config"
	"github.com/daehyunkim/repopersona/pkg/models"
)

const maxTokens = 1024

// Provider implements models.Classifier using Anthropic.
type Provider struct {
	cfg    config.AnthropicConfig
	client sdk.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	return &Provider{
		cfg:    cfg,
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Classify(ctx context.Context, facts models.RepoFacts) (models.Personality, error) {
	message, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.cfg.Model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt.Build(facts))),
		},
	})
	if err != nil {
		return models.Personality{}, fmt.Errorf("anthropic api: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return prompt.Parse(block.Text)
		}
	}
	return models.Personality{}, fmt.Errorf("no text content in anthropic response")
}

var _ models.Classifier = (*Provider)(nil)
