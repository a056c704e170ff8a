package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Validate checks configuration values and returns sentinel errors usable
// with errors.Is(). It never mutates the config.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.AIAPIKey == "" {
		return fmt.Errorf("%w: set the AI_API_KEY environment variable or ai_api_key in config.yaml",
			ErrMissingAPIKey)
	}
	if !strings.HasPrefix(c.AIBaseURL, "http://") && !strings.HasPrefix(c.AIBaseURL, "https://") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.AIBaseURL)
	}
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 32768 {
		return fmt.Errorf("%w: must be between 1 and 32,768, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.MaxIterations < 1 || c.MaxIterations > MaxAllowedIterations {
		return fmt.Errorf("%w: must be between 1 and %d, got %d",
			ErrInvalidMaxIterations, MaxAllowedIterations, c.MaxIterations)
	}
	if c.HistoryLimit < MinHistoryLimit || c.HistoryLimit > MaxAllowedHistoryLimt {
		return fmt.Errorf("%w: must be between %d and %d, got %d",
			ErrInvalidHistoryLimit, MinHistoryLimit, MaxAllowedHistoryLimt, c.HistoryLimit)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}
	if !strings.HasPrefix(c.EmbedderBaseURL, "http://") && !strings.HasPrefix(c.EmbedderBaseURL, "https://") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.EmbedderBaseURL)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPass)
	}
	if c.PostgresPassword == "laburen_dev_password" {
		slog.Warn("using the default development password for PostgreSQL",
			"hint", "change postgres_password for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPass, len(c.PostgresPassword))
	}

	// allow/prefer are deprecated and vulnerable to downgrade, so they are
	// rejected here on purpose.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
