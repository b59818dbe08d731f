package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the OpenAI API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMissingEndpoint indicates the OpenAI endpoint is missing.
	ErrMissingEndpoint = errors.New("missing OpenAI endpoint")

	// ErrInvalidDeployment indicates a deployment/model name is empty.
	ErrInvalidDeployment = errors.New("invalid deployment name")

	// ErrInvalidDimensions indicates the embedding dimension is out of range.
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMinScore indicates the similarity threshold is out of range.
	ErrInvalidMinScore = errors.New("invalid similarity threshold")

	// ErrInvalidTopK indicates the retrieval limit is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidHistoryLimit indicates the history depth is out of range.
	ErrInvalidHistoryLimit = errors.New("invalid history limit")

	// ErrInvalidCacheThreshold indicates the cache hit threshold is out of range.
	ErrInvalidCacheThreshold = errors.New("invalid cache hit threshold")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// OpenAI backend
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: set the OPENAI_API_KEY environment variable", ErrMissingAPIKey)
	}
	if c.OpenAIEndpoint == "" {
		return fmt.Errorf("%w: openai_endpoint cannot be empty", ErrMissingEndpoint)
	}
	if c.EmbeddingsDeployment == "" {
		return fmt.Errorf("%w: openai_embeddings_deployment cannot be empty", ErrInvalidDeployment)
	}
	if c.CompletionsDeployment == "" {
		return fmt.Errorf("%w: openai_completions_deployment cannot be empty", ErrInvalidDeployment)
	}

	// Embedding dimensions: every vector produced and every vector column
	// must agree on this value. The upper bound matches pgvector's index limit.
	if c.EmbeddingDimensions < 1 || c.EmbeddingDimensions > 2000 {
		return fmt.Errorf("%w: must be between 1 and 2000, got %d", ErrInvalidDimensions, c.EmbeddingDimensions)
	}

	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	// Retrieval
	if c.MinScore < 0.0 || c.MinScore >= 1.0 {
		return fmt.Errorf("%w: must be in [0.0, 1.0), got %.2f", ErrInvalidMinScore, c.MinScore)
	}
	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.HistoryLimit < 0 || c.HistoryLimit > 50 {
		return fmt.Errorf("%w: must be between 0 and 50, got %d", ErrInvalidHistoryLimit, c.HistoryLimit)
	}

	// Response cache
	if c.CacheHitEnabled && (c.CacheHitThreshold <= 0.0 || c.CacheHitThreshold > 1.0) {
		return fmt.Errorf("%w: must be in (0.0, 1.0], got %.2f", ErrInvalidCacheThreshold, c.CacheHitThreshold)
	}

	// PostgreSQL
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
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "newschat_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"warning", "change postgres_password for production deployments")
	}

	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
