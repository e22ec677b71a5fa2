// Package embedclient provides indexer.EmbeddingClient implementations:
// a local, dependency-free deterministic embedder and an HTTP client for
// a remote embedding service.
package embedclient

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

// LocalConfig configures a Local embedder.
type LocalConfig struct {
	Dimensions    int // default 384
	MaxInputChars int // default 8000
}

func (c LocalConfig) withDefaults() LocalConfig {
	if c.Dimensions <= 0 {
		c.Dimensions = 384
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 8000
	}
	return c
}

// Local is a dependency-free EmbeddingClient that derives a deterministic
// unit vector from each input's token shingles via FNV hashing. It has no
// semantic quality, but satisfies indexer.EmbeddingClient's contract
// exactly (stable dimension, query/passage modes, deterministic output
// for identical input), which is all the indexing pipeline and its tests
// require when no real model is configured.
type Local struct {
	cfg LocalConfig
}

// NewLocal constructs a Local embedder with the given configuration.
func NewLocal(cfg LocalConfig) *Local {
	return &Local{cfg: cfg.withDefaults()}
}

var _ indexer.EmbeddingClient = (*Local)(nil)

func (l *Local) Dimension(ctx context.Context) (int, error) {
	return l.cfg.Dimensions, nil
}

func (l *Local) MaxInputChars() int {
	return l.cfg.MaxInputChars
}

func (l *Local) Embed(ctx context.Context, text string, mode indexer.EmbedMode) ([]float32, error) {
	return l.embedOne(text, mode), nil
}

func (l *Local) EmbedBatch(ctx context.Context, texts []string, mode indexer.EmbedMode) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = l.embedOne(t, mode)
	}
	return out, nil
}

// embedOne hashes overlapping 3-gram token shingles of text into buckets
// of the target dimension, then L2-normalizes. mode perturbs the seed so
// query and passage embeddings of the same text differ, mirroring how
// real bi-encoders produce asymmetric query/passage vectors.
func (l *Local) embedOne(text string, mode indexer.EmbedMode) []float32 {
	dim := l.cfg.Dimensions
	vec := make([]float32, dim)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	seedSuffix := byte(0)
	if mode == indexer.EmbedModeQuery {
		seedSuffix = 1
	}

	shingleSize := 3
	for i := range tokens {
		end := i + shingleSize
		if end > len(tokens) {
			end = len(tokens)
		}
		shingle := joinTokens(tokens[i:end])

		h := fnv.New64a()
		h.Write([]byte(shingle))
		h.Write([]byte{seedSuffix})
		sum := h.Sum64()

		bucket := int(sum % uint64(dim))
		sign := float32(1)
		if sum&(1<<63) != 0 {
			sign = -1
		}
		vec[bucket] += sign
	}

	normalize(vec)
	return vec
}

func tokenize(text string) []string {
	var tokens []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			cur = append(cur, c)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func joinTokens(tokens []string) string {
	total := 0
	for _, t := range tokens {
		total += len(t) + 1
	}
	buf := make([]byte, 0, total)
	for _, t := range tokens {
		buf = append(buf, t...)
		buf = append(buf, '\x00')
	}
	return string(buf)
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}
