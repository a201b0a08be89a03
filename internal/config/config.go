package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type StoreBackend string

const (
	StoreFile   StoreBackend = "file"
	StoreSQLite StoreBackend = "sqlite"
	StoreRedis  StoreBackend = "redis"
)

type Config struct {
	// LLM settings. The OpenAI-compatible client talks to Mistral by default.
	LLMProvider      LLMProvider   `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string        `env:"MISTRAL_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL" envDefault:"https://api.mistral.ai/v1"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"mistral-tiny"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// OPENAI_API_KEY is read when MISTRAL_API_KEY is unset.
	OpenAIAPIKeyFallback string `env:"OPENAI_API_KEY"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPrompt     string `env:"SYSTEM_PROMPT" envDefault:"You are a helpful AI study assistant named TekAI."`
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Typewriter
	TypingInterval time.Duration `env:"TYPING_INTERVAL" envDefault:"50ms"`
	TypingStep     int           `env:"TYPING_STEP" envDefault:"1"`

	// Storage
	StoreBackend  StoreBackend `env:"STORE_BACKEND" envDefault:"file"`
	StoreFilePath string       `env:"STORE_FILE_PATH" envDefault:"data/store.json"`
	SQLitePath    string       `env:"SQLITE_PATH" envDefault:"data/tekai.db"`
	RedisAddr     string       `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisUsername string       `env:"REDIS_USERNAME"`
	RedisPassword string       `env:"REDIS_PASSWORD"`
	RedisDB       int          `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string       `env:"REDIS_PREFIX" envDefault:"tekai:"`
	LogFilePath   string       `env:"LOG_FILE_PATH" envDefault:"logs/log.jsonl"`

	// Speech engines. Empty command disables the capability.
	STTCommand string `env:"STT_COMMAND"`
	TTSCommand string `env:"TTS_COMMAND"`
	Language   string `env:"SPEECH_LANGUAGE" envDefault:"en-US"`

	// Export
	ExportDir string `env:"EXPORT_DIR" envDefault:"."`

	// Terminal UI
	DebugLogPath string `env:"DEBUG_LOG_PATH" envDefault:"logs/tekai.log"`

	// Telegram front end
	TelegramBotToken string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64         `env:"TELEGRAM_CHAT_ID"`
	TelegramStep     int           `env:"TELEGRAM_TYPING_STEP" envDefault:"40"`
	TelegramInterval time.Duration `env:"TELEGRAM_TYPING_INTERVAL" envDefault:"1s"`
	ReminderCron     string        `env:"REMINDER_CRON" envDefault:"0 18 * * *"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = cfg.OpenAIAPIKeyFallback
	}
	return cfg
}
