package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderOff        = "off"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// Config selects and configures the LLM backend. Only the credentials of
// the selected provider are required.
type Config struct {
	Provider string

	Anthropic  Credentials
	OpenAI     Credentials
	OpenRouter Credentials
	Gemini     Credentials
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// Credentials holds the per-provider key, model and optional endpoint.
type Credentials struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns an offline configuration with model defaults filled
// in. Drill generation is disabled until a provider is chosen.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderOff,
		Anthropic:  Credentials{Model: "claude-haiku"},
		OpenAI:     Credentials{Model: "gpt-4o-mini"},
		OpenRouter: Credentials{Model: "google/gemini-2.0-flash-001", BaseURL: defaultOpenRouterBaseURL},
		Gemini:     Credentials{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 8 * time.Second,
	}
}

// ConfigFromEnv reads KOTOBA_* variables over DefaultConfig. If no provider
// is named, the first well-known vendor API key found selects one.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	envInto := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInto(&cfg.Anthropic.APIKey, "KOTOBA_ANTHROPIC_API_KEY")
	envInto(&cfg.Anthropic.Model, "KOTOBA_ANTHROPIC_MODEL")
	envInto(&cfg.OpenAI.APIKey, "KOTOBA_OPENAI_API_KEY")
	envInto(&cfg.OpenAI.Model, "KOTOBA_OPENAI_MODEL")
	envInto(&cfg.OpenAI.BaseURL, "KOTOBA_OPENAI_BASE_URL")
	envInto(&cfg.OpenRouter.APIKey, "KOTOBA_OPENROUTER_API_KEY")
	envInto(&cfg.OpenRouter.Model, "KOTOBA_OPENROUTER_MODEL")
	envInto(&cfg.Gemini.APIKey, "KOTOBA_GEMINI_API_KEY")
	envInto(&cfg.Gemini.Model, "KOTOBA_GEMINI_MODEL")

	if d, err := time.ParseDuration(os.Getenv("KOTOBA_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}

	if p := os.Getenv("KOTOBA_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
		return cfg
	}
	discover(&cfg)
	return cfg
}

// discover picks a provider from vendor-standard API key variables.
func discover(cfg *Config) {
	candidates := []struct {
		provider string
		env      string
		creds    *Credentials
	}{
		{ProviderGemini, "GEMINI_API_KEY", &cfg.Gemini},
		{ProviderOpenAI, "OPENAI_API_KEY", &cfg.OpenAI},
		{ProviderAnthropic, "ANTHROPIC_API_KEY", &cfg.Anthropic},
		{ProviderOpenRouter, "OPENROUTER_API_KEY", &cfg.OpenRouter},
	}
	for _, c := range candidates {
		if c.creds.APIKey != "" {
			cfg.Provider = c.provider
			return
		}
		if k := os.Getenv(c.env); k != "" {
			c.creds.APIKey = k
			cfg.Provider = c.provider
			return
		}
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderOff
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var creds Credentials
	switch c.Provider {
	case "", ProviderOff, ProviderMock:
		return nil
	case ProviderAnthropic:
		creds = c.Anthropic
	case ProviderOpenAI:
		creds = c.OpenAI
	case ProviderOpenRouter:
		creds = c.OpenRouter
	case ProviderGemini:
		creds = c.Gemini
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if creds.APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}
