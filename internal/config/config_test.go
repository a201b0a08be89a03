package config

import (
	"os"
	"testing"
	"time"
)

func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestNew_Defaults(t *testing.T) {
	unset(t, "LLM_PROVIDER", "OPENAI_MODEL", "OPENAI_BASE_URL", "TYPING_INTERVAL", "TYPING_STEP", "STORE_BACKEND")
	cfg := New()
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("provider: %q", cfg.LLMProvider)
	}
	if cfg.OpenAIModel != "mistral-tiny" || cfg.OpenAIBaseURL != "https://api.mistral.ai/v1" {
		t.Fatalf("unexpected model settings: %s %s", cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}
	if cfg.TypingInterval != 50*time.Millisecond || cfg.TypingStep != 1 {
		t.Fatalf("unexpected typing settings: %v %d", cfg.TypingInterval, cfg.TypingStep)
	}
	if cfg.StoreBackend != StoreFile {
		t.Fatalf("store backend: %q", cfg.StoreBackend)
	}
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("TYPING_INTERVAL", "10ms")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	cfg := New()
	if cfg.StoreBackend != StoreSQLite {
		t.Fatalf("store backend: %q", cfg.StoreBackend)
	}
	if cfg.TypingInterval != 10*time.Millisecond {
		t.Fatalf("interval: %v", cfg.TypingInterval)
	}
	if cfg.TelegramChatID != 42 {
		t.Fatalf("chat id: %d", cfg.TelegramChatID)
	}
}

func TestNew_APIKeyFallback(t *testing.T) {
	unset(t, "MISTRAL_API_KEY")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	if got := New().OpenAIAPIKey; got != "sk-openai" {
		t.Fatalf("fallback key: %q", got)
	}

	t.Setenv("MISTRAL_API_KEY", "mistral")
	if got := New().OpenAIAPIKey; got != "mistral" {
		t.Fatalf("MISTRAL_API_KEY must win, got %q", got)
	}
}
