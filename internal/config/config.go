package config

import "github.com/mvp-joe/contextindex/internal/indexer"

// Config is the complete contextindex configuration surface named in
// the spec's option set: embedding_batch_size, max_chunk_size,
// chunk_overlap, hybrid_mode, chunk_limit, custom_extensions,
// custom_ignore_patterns. Loadable from `.context/config.yml` with
// CONTEXTINDEX_* environment variable overrides.
type Config struct {
	EmbeddingBatchSize   int             `yaml:"embedding_batch_size" mapstructure:"embedding_batch_size"`
	MaxChunkSize         int             `yaml:"max_chunk_size" mapstructure:"max_chunk_size"`
	ChunkOverlap         int             `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	HybridMode           bool            `yaml:"hybrid_mode" mapstructure:"hybrid_mode"`
	ChunkLimit           int             `yaml:"chunk_limit" mapstructure:"chunk_limit"`
	CustomExtensions     []string        `yaml:"custom_extensions" mapstructure:"custom_extensions"`
	CustomIgnorePatterns []string        `yaml:"custom_ignore_patterns" mapstructure:"custom_ignore_patterns"`
	Embedding            EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
}

// EmbeddingConfig configures the EmbeddingClient backend (see
// internal/embedclient): a local deterministic embedder or a remote
// HTTP endpoint.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`     // "local" or "remote"
	Model      string `yaml:"model" mapstructure:"model"`           // model identifier; neither embedding client reads it
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"` // embedding vector width
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`     // e.g., "http://localhost:8121/embed"
}

// Default returns a configuration populated with the package's default
// tuning knobs, mirrored from internal/indexer's DefaultXxx constants
// so the two never drift apart.
func Default() *Config {
	return &Config{
		EmbeddingBatchSize: indexer.DefaultEmbeddingBatchSize,
		MaxChunkSize:       indexer.DefaultMaxChunkSize,
		ChunkOverlap:       indexer.DefaultChunkOverlap,
		HybridMode:         indexer.DefaultHybridMode,
		ChunkLimit:         indexer.DefaultChunkLimit,
		Embedding: EmbeddingConfig{
			Provider:   "local",
			Model:      "local-hash-embed",
			Dimensions: 384,
			Endpoint:   "",
		},
	}
}

// Extensions returns the indexable extension allow-list: the
// package's default set plus any operator-supplied custom extensions.
func (c *Config) Extensions() []string {
	return append(append([]string(nil), indexer.DefaultExtensions...), c.CustomExtensions...)
}

// IgnorePatterns returns the operator-supplied ignore patterns layered
// on top of the builtin defaults by indexer.NewIgnoreMatcher.
func (c *Config) IgnorePatterns() []string {
	return c.CustomIgnorePatterns
}
