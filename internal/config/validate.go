package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProvider indicates an unsupported embedding provider
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidDimensions indicates invalid embedding dimensions
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidChunkSize indicates invalid chunk size configuration
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidOverlap indicates invalid overlap configuration
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrEmptyEndpoint indicates a remote embedding provider configured
	// without an endpoint
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")

	// ErrInvalidBatchSize indicates an embedding batch size below the
	// spec's lower bound of 1
	ErrInvalidBatchSize = errors.New("invalid embedding batch size")

	// ErrInvalidChunkLimit indicates a non-positive chunk limit
	ErrInvalidChunkLimit = errors.New("invalid chunk limit")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateChunking(cfg); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != "local" && provider != "remote" {
		errs = append(errs, fmt.Errorf("%w: must be 'local' or 'remote', got '%s'", ErrInvalidProvider, cfg.Provider))
	}

	if cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}

	if provider == "remote" && strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required for the remote provider", ErrEmptyEndpoint))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateChunking(cfg *Config) error {
	var errs []error

	if cfg.EmbeddingBatchSize < 1 {
		errs = append(errs, fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidBatchSize, cfg.EmbeddingBatchSize))
	}

	if cfg.MaxChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_chunk_size must be positive, got %d", ErrInvalidChunkSize, cfg.MaxChunkSize))
	}

	if cfg.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_overlap cannot be negative, got %d", ErrInvalidOverlap, cfg.ChunkOverlap))
	}

	if cfg.MaxChunkSize > 0 && cfg.ChunkOverlap >= cfg.MaxChunkSize {
		errs = append(errs, fmt.Errorf("%w: chunk_overlap (%d) should be less than max_chunk_size (%d)", ErrInvalidOverlap, cfg.ChunkOverlap, cfg.MaxChunkSize))
	}

	if cfg.ChunkLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_limit must be positive, got %d", ErrInvalidChunkLimit, cfg.ChunkLimit))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
