package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/MikeSquared-Agency/intake/internal/leadstore"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	StoreWebhook  = leadstore.BackendWebhook
	StorePostgres = leadstore.BackendPostgres

	PolicyManual    = "manual"
	PolicyAutomatic = "automatic"
	PolicyBoth      = "both"
)

type Config struct {
	Port     int    `env:"INTAKE_PORT" envDefault:"8760"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	LLMProvider       string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	AnthropicAPIKey   string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel    string        `env:"INTAKE_ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel       string        `env:"INTAKE_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"30s"`

	LeadStore    string        `env:"LEAD_STORE" envDefault:"webhook"`
	LeadStoreURL string        `env:"LEAD_STORE_URL"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	LeadSource   string        `env:"LEAD_SOURCE" envDefault:"intake-chat"`

	SavePolicy string `env:"SAVE_POLICY" envDefault:"manual"`

	SessionCacheSize int    `env:"SESSION_CACHE_SIZE" envDefault:"10000"`
	RedisURL         string `env:"REDIS_URL"`

	NatsURL       string `env:"NATS_URL"`
	NatsToken     string `env:"NATS_TOKEN"`
	SlackBotToken string `env:"SLACK_BOT_TOKEN"`
	SlackChannel  string `env:"SLACK_LEADS_CHANNEL"`

	AdminToken string `env:"ADMIN_TOKEN"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// LoadStore reads only what a lead store reader needs, skipping the
// completion credential check.
func LoadStore() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.validateStore()
}

// Validate reports every setting the service cannot start without.
func (c Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of anthropic, openai", c.LLMProvider))
	}

	switch c.SavePolicy {
	case PolicyManual, PolicyAutomatic, PolicyBoth:
	default:
		errs = append(errs, fmt.Errorf("SAVE_POLICY %q is not one of manual, automatic, both", c.SavePolicy))
	}

	if c.CompletionTimeout <= 0 {
		errs = append(errs, errors.New("COMPLETION_TIMEOUT must be positive"))
	}
	if c.SessionCacheSize <= 0 {
		errs = append(errs, errors.New("SESSION_CACHE_SIZE must be positive"))
	}
	if err := c.validateStore(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c Config) validateStore() error {
	var errs []error
	switch c.LeadStore {
	case StoreWebhook:
		if c.LeadStoreURL == "" {
			errs = append(errs, errors.New("LEAD_STORE_URL is required for the webhook store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("LEAD_STORE %q is not one of webhook, postgres", c.LeadStore))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// StoreOptions is the lead store selection derived from the environment.
func (c Config) StoreOptions() leadstore.Options {
	return leadstore.Options{
		Backend:     c.LeadStore,
		URL:         c.LeadStoreURL,
		DatabaseURL: c.DatabaseURL,
		Timeout:     c.StoreTimeout,
	}
}
