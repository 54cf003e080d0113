package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"KOTOBA_LLM_PROVIDER", "KOTOBA_LLM_TIMEOUT",
		"KOTOBA_ANTHROPIC_API_KEY", "KOTOBA_OPENAI_API_KEY",
		"KOTOBA_OPENROUTER_API_KEY", "KOTOBA_GEMINI_API_KEY",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_DefaultsOff(t *testing.T) {
	clearLLMEnv(t)
	cfg := ConfigFromEnv()
	assert.False(t, cfg.Enabled())
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestConfigFromEnv_ExplicitProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("KOTOBA_LLM_PROVIDER", "anthropic")
	t.Setenv("KOTOBA_ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("KOTOBA_LLM_TIMEOUT", "3s")
	t.Setenv("OPENAI_API_KEY", "ignored")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.Anthropic.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_Discovery(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-openai", cfg.OpenAI.APIKey)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"off", Config{Provider: ProviderOff}, false},
		{"mock", Config{Provider: ProviderMock}, false},
		{"missing key", Config{Provider: ProviderGemini}, true},
		{"with key", Config{Provider: ProviderGemini, Gemini: Credentials{APIKey: "k"}}, false},
		{"unknown", Config{Provider: "bard"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
