// Package ollama implements the classification provider against a local
// Ollama server's generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/daehyunkim/repopersona/internal/classify/prompt"
	"github.com/daehyunkim/repopersona/internal/config"
	"github.com/daehyunkim/repopersona/pkg/models"
)

// Provider implements models.Classifier using Ollama.
type Provider struct {
	cfg    config.OllamaConfig
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "ollama" }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (p *Provider) Classify(ctx context.Context, facts models.RepoFacts) (models.Personality, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.cfg.Model,
		Prompt: prompt.Build(facts),
		Stream: false,
		Format: "json",
		Options: map[string]any{
			"temperature": 0.7,
			"top_p":       0.9,
		},
	})
	if err != nil {
		return models.Personality{}, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return models.Personality{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.Personality{}, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Personality{}, fmt.Errorf("ollama api error: status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return models.Personality{}, fmt.Errorf("decoding ollama response: %w", err)
	}

	return prompt.Parse(gen.Response)
}

// Ping checks whether the Ollama server is reachable. Used by the status
// endpoint, never by the pipeline.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/api/version", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama not ready: status %d", resp.StatusCode)
	}
	return nil
}

var _ models.Classifier = (*Provider)(nil)
