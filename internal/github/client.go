// Package github is the data-collection client. It gathers the repository
// facts one analysis needs in a single Fetch pass against the GitHub REST API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/daehyunkim/repopersona/pkg/models"
)

// Sentinel errors for data-collection failures. The worker copies the
// wrapped message verbatim into the job's error field, so keep them
// human-readable.
var (
	ErrRepoNotFound = errors.New("repository not found or not public")
	ErrRateLimited  = errors.New("github api rate limit exceeded")
	ErrUnreachable  = errors.New("github unreachable")
	ErrTimeout      = errors.New("github request timeout")
)

// Client is the interface for collecting repository facts.
type Client interface {
	Fetch(ctx context.Context, owner, repo string) (models.RepoFacts, error)
	RateLimit(ctx context.Context) (RateLimit, error)
}

// RateLimit reports the authenticated quota state, used for diagnostics only.
type RateLimit struct {
	Remaining int
	ResetAt   time.Time
}

const maxRecentCommits = 10

// HTTPClient implements Client using the GitHub REST API v3.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new GitHub client. token may be empty; the API then
// serves the unauthenticated quota.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch gathers repository metadata, language distribution, recent commits,
// the README, and test/CI presence. Repo metadata is mandatory; README and
// the test/CI probes degrade to empty/false because many repositories
// legitimately lack them.
func (c *HTTPClient) Fetch(ctx context.Context, owner, repo string) (models.RepoFacts, error) {
	var meta repoResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &meta); err != nil {
		return models.RepoFacts{}, err
	}

	var languages map[string]int
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/languages", owner, repo), &languages); err != nil {
		return models.RepoFacts{}, err
	}

	var commits []commitResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", owner, repo, maxRecentCommits), &commits); err != nil {
		return models.RepoFacts{}, err
	}

	recent := make([]models.Commit, 0, len(commits))
	for _, commit := range commits {
		recent = append(recent, models.Commit{
			Message: commit.Commit.Message,
			Date:    commit.Commit.Author.Date,
			Author:  commit.Commit.Author.Name,
		})
	}

	facts := models.RepoFacts{
		Owner:         owner,
		Repo:          repo,
		Name:          meta.Name,
		Description:   meta.Description,
		Language:      meta.Language,
		Stars:         meta.StargazersCount,
		Forks:         meta.ForksCount,
		OpenIssues:    meta.OpenIssuesCount,
		CreatedAt:     meta.CreatedAt,
		UpdatedAt:     meta.UpdatedAt,
		PushedAt:      meta.PushedAt,
		Languages:     languages,
		RecentCommits: recent,
		ReadmeContent: c.fetchReadme(ctx, owner, repo),
		HasTests:      c.checkForTests(ctx, owner, repo),
		HasCICD:       c.checkForCICD(ctx, owner, repo),
	}

	return facts, nil
}

// fetchReadme returns the decoded README content, or "" when the repository
// has none or the call fails.
func (c *HTTPClient) fetchReadme(ctx context.Context, owner, repo string) string {
	var readme readmeResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &readme); err != nil {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(readme.Content, "\n", ""))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// checkForTests looks for a test-like directory at the repository root.
func (c *HTTPClient) checkForTests(ctx context.Context, owner, repo string) bool {
	var entries []contentEntry
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/contents/", owner, repo), &entries); err != nil {
		return false
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name)
		if strings.Contains(name, "test") || strings.Contains(name, "spec") || strings.Contains(name, "__tests__") {
			return true
		}
	}
	return false
}

// ciConfigPaths are probed when .github/workflows is absent.
var ciConfigPaths = []string{".travis.yml", ".circleci/config.yml", ".gitlab-ci.yml"}

// checkForCICD looks for GitHub Actions workflows, then common CI config files.
func (c *HTTPClient) checkForCICD(ctx context.Context, owner, repo string) bool {
	var workflows []contentEntry
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/contents/.github/workflows", owner, repo), &workflows); err == nil {
		return len(workflows) > 0
	}

	for _, path := range ciConfigPaths {
		var entry json.RawMessage
		if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path), &entry); err == nil {
			return true
		}
	}
	return false
}

func (c *HTTPClient) RateLimit(ctx context.Context) (RateLimit, error) {
	var resp rateLimitResponse
	if err := c.getJSON(ctx, "/rate_limit", &resp); err != nil {
		return RateLimit{}, err
	}
	return RateLimit{
		Remaining: resp.Rate.Remaining,
		ResetAt:   time.Unix(resp.Rate.Reset, 0).UTC(),
	}, nil
}

// getJSON performs one GET against the API and decodes the response into out.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrRepoNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("github api error: status %d on %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding github response: %w", err)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// --- GitHub response types ---

type repoResponse struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	PushedAt        string `json:"pushed_at"`
}

type commitResponse struct {
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type readmeResponse struct {
	Content string `json:"content"`
}

type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rateLimitResponse struct {
	Rate struct {
		Remaining int   `json:"remaining"`
		Reset     int64 `json:"reset"`
	} `json:"rate"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
