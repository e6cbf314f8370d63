package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL    string
	DBMaxOpenConns int

	JWTSecret  string
	SessionTTL time.Duration

	LLMProvider       string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	CompletionTimeout time.Duration

	TelegramAPIURL string
	PublicBaseURL  string

	MaxUploadBytes int64
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	cfg, dotenv := read()
	if err := cfg.validate(); err != nil {
		return nil, dotenv, err
	}
	return cfg, dotenv, nil
}

// LoadDatabase reads the configuration without requiring the HTTP and
// provider secrets. Operator tooling only needs the database settings.
func LoadDatabase() *Config {
	cfg, _ := read()
	return cfg
}

func read() (*Config, bool) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		DatabaseURL:    getEnv("DATABASE_URL", "agentdesk.db"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 5),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,

		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		CompletionTimeout: time.Duration(getEnvAsInt("COMPLETION_TIMEOUT_SECONDS", 60)) * time.Second,

		TelegramAPIURL: strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),

		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
	}
	return cfg, dotenv
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY environment variable is required for the gemini provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY environment variable is required for the openai provider"))
		}
	case ProviderMock:
	default:
		errs = append(errs, errors.New("LLM_PROVIDER must be one of gemini, openai, mock"))
	}
	if c.DBMaxOpenConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
