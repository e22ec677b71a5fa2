package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .context/config.yml when present
// - LoadConfig() merges config file with defaults
// - Environment variables override config file values and defaults
// - LoadConfig() returns error for malformed YAML / invalid values
// - Validate() rejects invalid provider, dimensions, batch size, chunk
//   size, overlap, chunk limit

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, 100, cfg.EmbeddingBatchSize)
	assert.Equal(t, 2500, cfg.MaxChunkSize)
	assert.Equal(t, 300, cfg.ChunkOverlap)
	assert.True(t, cfg.HybridMode)
	assert.Equal(t, 450_000, cfg.ChunkLimit)
	assert.Equal(t, "local", cfg.Embedding.Provider)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := NewLoader(tempDir).Load()

	require.NoError(t, err)
	expected := Default()
	assert.Equal(t, expected.EmbeddingBatchSize, cfg.EmbeddingBatchSize)
	assert.Equal(t, expected.MaxChunkSize, cfg.MaxChunkSize)
	assert.Equal(t, expected.HybridMode, cfg.HybridMode)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, ".context")
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := `
embedding_batch_size: 50
max_chunk_size: 1200
chunk_overlap: 150
hybrid_mode: false
chunk_limit: 1000
custom_extensions: [".proto"]
custom_ignore_patterns: ["fixtures/"]

embedding:
  provider: remote
  model: remote-model
  dimensions: 768
  endpoint: https://embed.example.com/v1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.EmbeddingBatchSize)
	assert.Equal(t, 1200, cfg.MaxChunkSize)
	assert.Equal(t, 150, cfg.ChunkOverlap)
	assert.False(t, cfg.HybridMode)
	assert.Equal(t, 1000, cfg.ChunkLimit)
	assert.Equal(t, []string{".proto"}, cfg.CustomExtensions)
	assert.Equal(t, []string{"fixtures/"}, cfg.CustomIgnorePatterns)

	assert.Equal(t, "remote", cfg.Embedding.Provider)
	assert.Equal(t, "remote-model", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, "https://embed.example.com/v1", cfg.Embedding.Endpoint)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, ".context")
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := `
max_chunk_size: 900
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 900, cfg.MaxChunkSize)
	assert.Equal(t, Default().EmbeddingBatchSize, cfg.EmbeddingBatchSize)
	assert.Equal(t, Default().ChunkLimit, cfg.ChunkLimit)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, ".context")
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := `
max_chunk_size: 900
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644))

	t.Setenv("CONTEXTINDEX_MAX_CHUNK_SIZE", "3000")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.MaxChunkSize)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	tempDir := t.TempDir()

	t.Setenv("CONTEXTINDEX_HYBRID_MODE", "false")
	t.Setenv("CONTEXTINDEX_EMBEDDING_PROVIDER", "remote")
	t.Setenv("CONTEXTINDEX_EMBEDDING_ENDPOINT", "https://custom.endpoint/embed")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.False(t, cfg.HybridMode)
	assert.Equal(t, "remote", cfg.Embedding.Provider)
	assert.Equal(t, "https://custom.endpoint/embed", cfg.Embedding.Endpoint)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, ".context")
	require.NoError(t, os.MkdirAll(dir, 0755))

	malformed := "max_chunk_size: \"unclosed\nchunk_overlap: [oops"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(malformed), 0644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, ".context")
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := `
max_chunk_size: -5
embedding:
  provider: bogus-provider
  dimensions: 384
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestValidate_AcceptsValidConfiguration(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestValidate_RejectsInvalidProvider(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "unsupported"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProvider)
}

func TestValidate_RejectsNonPositiveDimensions(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Dimensions = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestValidate_RejectsRemoteProviderWithoutEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "remote"
	cfg.Embedding.Endpoint = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestValidate_RejectsBatchSizeBelowOne(t *testing.T) {
	cfg := Default()
	cfg.EmbeddingBatchSize = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestValidate_RejectsNonPositiveMaxChunkSize(t *testing.T) {
	cfg := Default()
	cfg.MaxChunkSize = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
}

func TestValidate_RejectsNegativeOverlap(t *testing.T) {
	cfg := Default()
	cfg.ChunkOverlap = -1

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestValidate_RejectsOverlapGreaterThanMaxChunkSize(t *testing.T) {
	cfg := Default()
	cfg.MaxChunkSize = 800
	cfg.ChunkOverlap = 800

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestValidate_RejectsNonPositiveChunkLimit(t *testing.T) {
	cfg := Default()
	cfg.ChunkLimit = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunkLimit)
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	cfg := &Config{
		EmbeddingBatchSize: 0,
		MaxChunkSize:       -100,
		ChunkOverlap:       -50,
		ChunkLimit:         0,
		Embedding: EmbeddingConfig{
			Provider:   "invalid",
			Dimensions: -1,
		},
	}

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "provider")
	assert.Contains(t, msg, "dimensions")
	assert.Contains(t, msg, "batch size")
	assert.Contains(t, msg, "chunk size")
}

func TestToManagerConfig_CarriesExtensionsAndIgnorePatterns(t *testing.T) {
	cfg := Default()
	cfg.CustomExtensions = []string{".proto"}
	cfg.CustomIgnorePatterns = []string{"fixtures/"}

	mc := cfg.ToManagerConfig()

	assert.Contains(t, mc.Extensions, ".proto")
	assert.Contains(t, mc.Extensions, ".go")
	assert.Equal(t, []string{"fixtures/"}, mc.IgnorePatterns)
	assert.Equal(t, cfg.HybridMode, mc.Hybrid)
	assert.Equal(t, cfg.MaxChunkSize, mc.Splitter.MaxChunkSize)
}
