package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	PolicyAlways    = "always"
	PolicyFirstTurn = "first-turn"
)

// Config holds the application's configuration
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Port     int    `mapstructure:"PORT"`

	LLMProvider              string  `mapstructure:"LLM_PROVIDER"`
	GeminiAPIKey             string  `mapstructure:"GEMINI_API_KEY"`
	OpenAIAPIKey             string  `mapstructure:"OPENAI_API_KEY"`
	OllamaHost               string  `mapstructure:"OLLAMA_HOST"`
	ModelName                string  `mapstructure:"MODEL_NAME"`
	Temperature              float64 `mapstructure:"TEMPERATURE"`
	TopP                     float64 `mapstructure:"TOP_P"`
	TopK                     int     `mapstructure:"TOP_K"`
	MaxOutputTokens          int     `mapstructure:"MAX_OUTPUT_TOKENS"`
	GenerationTimeoutSeconds int     `mapstructure:"GENERATION_TIMEOUT"`

	// GenerationTimeout is derived from GenerationTimeoutSeconds.
	GenerationTimeout time.Duration `mapstructure:"-"`

	ExactMatchPolicy   string `mapstructure:"EXACT_MATCH_POLICY"`
	KnowledgeBasePath  string `mapstructure:"KNOWLEDGE_BASE_PATH"`
	WatchKnowledgeBase bool   `mapstructure:"WATCH_KNOWLEDGE_BASE"`
	KnowledgeCacheSize int    `mapstructure:"KNOWLEDGE_CACHE_SIZE"`

	ConversationLog    string `mapstructure:"CONVERSATION_LOG"`
	AdminUsername      string `mapstructure:"ADMIN_USERNAME"`
	SessionIdleMinutes int    `mapstructure:"SESSION_IDLE_MINUTES"`

	RateLimitMessagesPerMin int `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitBurstSize      int `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	RateLimitFilesPerHour   int `mapstructure:"RATE_LIMIT_FILES_PER_HOUR"`
	MaxUploadMB             int `mapstructure:"MAX_UPLOAD_MB"`

	UnidocLicenseKey string `mapstructure:"UNIDOC_LICENSE_KEY"`
}

// Load reads .env, an optional config.yaml and the environment, in that order
// of increasing precedence.
func Load(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Debug("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && logger != nil {
		logger.Debug("Could not read config file, using defaults/env vars", zap.Error(err))
	}

	return decode(v)
}

// Defaults returns the configuration with no file or environment overrides.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LLM_PROVIDER", ProviderGemini)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	v.SetDefault("MODEL_NAME", "gemini-2.0-flash-exp")
	v.SetDefault("TEMPERATURE", 0.1)
	v.SetDefault("TOP_P", 0.8)
	v.SetDefault("TOP_K", 20)
	v.SetDefault("MAX_OUTPUT_TOKENS", 4096)
	v.SetDefault("GENERATION_TIMEOUT", 45)
	v.SetDefault("EXACT_MATCH_POLICY", PolicyAlways)
	v.SetDefault("KNOWLEDGE_BASE_PATH", "")
	v.SetDefault("WATCH_KNOWLEDGE_BASE", true)
	v.SetDefault("KNOWLEDGE_CACHE_SIZE", 32)
	v.SetDefault("CONVERSATION_LOG", "conversation_logs.jsonl")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("SESSION_IDLE_MINUTES", 240)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
	v.SetDefault("RATE_LIMIT_FILES_PER_HOUR", 10)
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("UNIDOC_LICENSE_KEY", "")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.ExactMatchPolicy = strings.ToLower(strings.TrimSpace(cfg.ExactMatchPolicy))

	cfg.GenerationTimeout = time.Duration(cfg.GenerationTimeoutSeconds) * time.Second

	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	return &cfg, nil
}

// ValidationError describes one invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every out-of-range value. Missing credentials are not
// checked here; the model backend reports those when it is built.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	switch c.LLMProvider {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
	default:
		errs = append(errs, ValidationError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unsupported provider %q", c.LLMProvider)})
	}

	switch c.ExactMatchPolicy {
	case PolicyAlways, PolicyFirstTurn:
	default:
		errs = append(errs, ValidationError{Field: "EXACT_MATCH_POLICY", Message: fmt.Sprintf("must be %q or %q", PolicyAlways, PolicyFirstTurn)})
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ValidationError{Field: "PORT", Message: "must be between 1 and 65535"})
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "TEMPERATURE", Message: "must be between 0 and 2"})
	}
	if c.TopP <= 0 || c.TopP > 1 {
		errs = append(errs, ValidationError{Field: "TOP_P", Message: "must be in (0, 1]"})
	}
	if c.TopK < 1 {
		errs = append(errs, ValidationError{Field: "TOP_K", Message: "must be positive"})
	}
	if c.MaxOutputTokens < 1 {
		errs = append(errs, ValidationError{Field: "MAX_OUTPUT_TOKENS", Message: "must be positive"})
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "GENERATION_TIMEOUT", Message: "must be positive"})
	}
	if c.RateLimitMessagesPerMin < 1 || c.RateLimitBurstSize < 1 || c.RateLimitFilesPerHour < 1 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT", Message: "limits must be positive"})
	}
	if c.SessionIdleMinutes < 1 {
		errs = append(errs, ValidationError{Field: "SESSION_IDLE_MINUTES", Message: "must be positive"})
	}
	if c.MaxUploadMB < 1 {
		errs = append(errs, ValidationError{Field: "MAX_UPLOAD_MB", Message: "must be positive"})
	}

	return errs
}
