package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/kotoba/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller -> retry -> logging -> base, so each attempt is recorded.
// It returns (nil, nil) when generation is switched off.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *slog.Logger) (Provider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if events != nil {
		base = WithLogging(base, events, log)
	}
	return WithRetry(base, cfg.Retry, log), nil
}
