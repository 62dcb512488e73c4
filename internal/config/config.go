package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the RepoPersona server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	GitHub   GitHubConfig
	AI       AIConfig
	SMTP     SMTPConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	AppURL          string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type GitHubConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Ollama           OllamaConfig
	Anthropic        AnthropicConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// SMTPConfig configures the result mailer. Delivery is disabled when Host is
// empty; the pipeline itself never depends on it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether outbound mail is configured.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

type WorkerConfig struct {
	Interval      time.Duration
	CacheTTL      time.Duration
	SweepSchedule string
}

var validProviders = map[string]bool{
	"ollama":    true,
	"anthropic": true,
	"mock":      true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("REPOPERSONA_PORT", 8080),
			Env:             envString("REPOPERSONA_ENV", "development"),
			AppURL:          envString("APP_URL", "http://localhost:8080"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 30),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		GitHub: GitHubConfig{
			BaseURL: envString("GITHUB_API_URL", "https://api.github.com"),
			Token:   os.Getenv("GITHUB_TOKEN"),
			Timeout: envDuration("GITHUB_TIMEOUT", 30*time.Second),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "ollama"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "qwen2.5:14b"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     envString("SMTP_FROM", "RepoPersona <noreply@repopersona.dev>"),
		},
		Worker: WorkerConfig{
			Interval:      envDuration("WORKER_INTERVAL", 5*time.Second),
			CacheTTL:      envDuration("CACHE_TTL", 24*time.Hour),
			SweepSchedule: envString("CACHE_SWEEP_SCHEDULE", "0 * * * *"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !strings.HasPrefix(c.GitHub.BaseURL, "http://") && !strings.HasPrefix(c.GitHub.BaseURL, "https://") {
		return fmt.Errorf("GITHUB_API_URL must start with http:// or https://, got %q", c.GitHub.BaseURL)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, anthropic, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "anthropic" && c.AI.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}

	if c.Worker.Interval <= 0 {
		return fmt.Errorf("WORKER_INTERVAL must be positive, got %s", c.Worker.Interval)
	}
	if c.Worker.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Worker.CacheTTL)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
