package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors checkable with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty for the ollama provider", ErrInvalidProvider)
		}
	default:
		return fmt.Errorf("%w: %q, must be one of: gemini, googleai, openai, ollama",
			ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}
	if c.EmbedRateLimit < 0 {
		return fmt.Errorf("%w: embed_rate_limit cannot be negative, got %v", ErrInvalidIngest, c.EmbedRateLimit)
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
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "askcampus_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"warning", "change postgres_password for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Deprecated allow/prefer modes are excluded; they are vulnerable
	// to downgrade attacks.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	if c.AskTopK < 1 || c.AskTopK > 50 {
		return fmt.Errorf("%w: ask_top_k must be between 1 and 50, got %d", ErrInvalidTopK, c.AskTopK)
	}

	if c.RelayIntervalSeconds < 1 || c.RelayIntervalSeconds > 3600 {
		return fmt.Errorf("%w: relay_interval_seconds must be between 1 and 3600, got %d",
			ErrInvalidRelayInterval, c.RelayIntervalSeconds)
	}

	if c.IngestBatchSize < 1 {
		return fmt.Errorf("%w: ingest_batch_size must be positive, got %d", ErrInvalidIngest, c.IngestBatchSize)
	}
	if c.IngestConcurrency < 1 {
		return fmt.Errorf("%w: ingest_concurrency must be positive, got %d", ErrInvalidIngest, c.IngestConcurrency)
	}
	if c.ChunkWindowWords < 1 {
		return fmt.Errorf("%w: chunk_window_words must be positive, got %d", ErrInvalidIngest, c.ChunkWindowWords)
	}
	if c.ChunkOverlapWords < 0 || c.ChunkOverlapWords >= c.ChunkWindowWords {
		return fmt.Errorf("%w: chunk_overlap_words must be in [0, chunk_window_words), got %d",
			ErrInvalidIngest, c.ChunkOverlapWords)
	}

	return nil
}
