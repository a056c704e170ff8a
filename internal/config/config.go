// Package config provides application configuration with multi-source
// priority.
//
// Sources, highest to lowest:
//  1. Environment variables (runtime override, DATABASE_URL included)
//  2. Config file (~/.laburen/config.yaml or ./config.yaml)
//  3. Defaults
//
// Sensitive fields (passwords, API keys) are masked in MarshalJSON and
// String so a Config can be logged safely.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	ErrConfigNil             = errors.New("configuration is nil")
	ErrMissingAPIKey         = errors.New("missing API key")
	ErrInvalidModelName      = errors.New("invalid model name")
	ErrInvalidBaseURL        = errors.New("invalid provider base URL")
	ErrInvalidTemperature    = errors.New("invalid temperature")
	ErrInvalidMaxTokens      = errors.New("invalid max tokens")
	ErrInvalidMaxIterations  = errors.New("invalid max iterations")
	ErrInvalidHistoryLimit   = errors.New("invalid history limit")
	ErrInvalidEmbedderModel  = errors.New("invalid embedder model")
	ErrInvalidPostgresHost   = errors.New("invalid PostgreSQL host")
	ErrInvalidPostgresPort   = errors.New("invalid PostgreSQL port")
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")
	ErrInvalidPostgresPass   = errors.New("invalid PostgreSQL password")
	ErrInvalidSSLMode        = errors.New("invalid PostgreSQL SSL mode")
)

// Agent loop defaults.
const (
	DefaultMaxIterations  = 4
	MaxAllowedIterations  = 10
	DefaultHistoryLimit   = 120
	MinHistoryLimit       = 10
	MaxAllowedHistoryLimt = 10000
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; when a new secret
// field is added, update that method too.
type Config struct {
	// Completion provider (OpenAI-compatible chat completions endpoint).
	AIBaseURL   string  `mapstructure:"ai_base_url" json:"ai_base_url"`
	AIAPIKey    string  `mapstructure:"ai_api_key" json:"ai_api_key"` // SENSITIVE: masked in MarshalJSON
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float64 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Embedding provider for documentation search.
	EmbedderBaseURL string `mapstructure:"embedder_base_url" json:"embedder_base_url"`
	EmbedderModel   string `mapstructure:"embedder_model" json:"embedder_model"`

	// Orchestration loop.
	MaxIterations int `mapstructure:"max_iterations" json:"max_iterations"`
	HistoryLimit  int `mapstructure:"history_limit" json:"history_limit"`
	StreamDelayMS int `mapstructure:"stream_delay_ms" json:"stream_delay_ms"`
	ChunkSize     int `mapstructure:"chunk_size" json:"chunk_size"`

	// Storage (see storage.go).
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server (serve mode only).
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`
}

// Load reads configuration with env > file > defaults priority and
// validates it fail-fast.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".laburen")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL wins over individual postgres_* settings.
	if err := cfg.parseDatabaseURL(os.Getenv("DATABASE_URL")); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("ai_base_url", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("model_name", "gpt-4o-mini")
	viper.SetDefault("temperature", 0.2)
	viper.SetDefault("max_tokens", 700)

	viper.SetDefault("embedder_base_url", "https://api.openai.com/v1/embeddings")
	viper.SetDefault("embedder_model", "text-embedding-3-small")

	viper.SetDefault("max_iterations", DefaultMaxIterations)
	viper.SetDefault("history_limit", DefaultHistoryLimit)
	viper.SetDefault("stream_delay_ms", 15)
	viper.SetDefault("chunk_size", 24)

	// PostgreSQL defaults matching docker-compose.yml.
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "laburen")
	viper.SetDefault("postgres_password", "laburen_dev_password")
	viper.SetDefault("postgres_db_name", "laburen")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("server_addr", ":8080")
}

// bindEnvVariables binds runtime overrides explicitly; wildcard AutomaticEnv
// is avoided so the set of recognized variables stays auditable.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("ai_api_key", "AI_API_KEY")
	mustBind("ai_base_url", "LABUREN_AI_BASE_URL")
	mustBind("model_name", "LABUREN_MODEL_NAME")
	mustBind("embedder_base_url", "LABUREN_EMBEDDER_BASE_URL")
	mustBind("embedder_model", "LABUREN_EMBEDDER_MODEL")
	mustBind("max_iterations", "LABUREN_MAX_ITERATIONS")
	mustBind("server_addr", "LABUREN_SERVER_ADDR")
}

// maskedValue avoids substring leaks: a password containing "*" or letters
// from a word like "[REDACTED]" would survive naive masking.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are masked
// entirely; longer ones keep the first and last two characters for debug
// utility. This guards against accidental logging, nothing more.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON masks sensitive fields.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.AIAPIKey = maskSecret(a.AIAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
