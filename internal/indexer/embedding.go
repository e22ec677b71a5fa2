package indexer

import "context"

// EmbedMode specifies whether text is being embedded for a search query or
// for a stored passage; some providers produce different vectors for each.
type EmbedMode string

const (
	EmbedModeQuery   EmbedMode = "query"
	EmbedModePassage EmbedMode = "passage"
)

// EmbeddingClient maps text to fixed-dimension vectors. Grounded on the
// teacher's embed.Provider, generalized to the single/batch split and the
// transient/permanent failure distinction spec.md §4.5 requires.
type EmbeddingClient interface {
	// Dimension returns the vector length this client produces. A caller
	// may probe once and cache the result.
	Dimension(ctx context.Context) (int, error)

	// Embed embeds a single text. Returns a *TerminalError of kind
	// KindEmbeddingTransient (retryable) or KindEmbeddingPermanent
	// (do not retry).
	Embed(ctx context.Context, text string, mode EmbedMode) ([]float32, error)

	// EmbedBatch embeds texts in one call, preserving order and length:
	// callers must receive exactly len(texts) vectors back on success.
	EmbedBatch(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)

	// MaxInputChars is the client-side pre-truncation target, an
	// approximation of the provider's token limit.
	MaxInputChars() int
}

// preprocessInputs truncates every text to client.MaxInputChars() and
// coerces a nil/empty entry to "" rather than dropping it, so the output
// slice always stays aligned with the caller's chunk list.
func preprocessInputs(texts []string, maxChars int) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		if maxChars > 0 && len(t) > maxChars {
			t = t[:maxChars]
		}
		out[i] = t
	}
	return out
}
