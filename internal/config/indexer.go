package config

import (
	"github.com/mvp-joe/contextindex/internal/indexer"
)

// ToManagerConfig converts a Config into an indexer.ManagerConfig,
// applying custom_extensions/custom_ignore_patterns and the chunking
// knobs named in the spec's configuration option set.
func (c *Config) ToManagerConfig() indexer.ManagerConfig {
	return indexer.ManagerConfig{
		Hybrid:             c.HybridMode,
		EmbeddingBatchSize: c.EmbeddingBatchSize,
		ChunkLimit:         c.ChunkLimit,
		Splitter: indexer.SplitterConfig{
			MaxChunkSize: c.MaxChunkSize,
			Overlap:      c.ChunkOverlap,
		},
		Extensions:     c.Extensions(),
		IgnorePatterns: c.IgnorePatterns(),
	}
}
