package indexer

import "strings"

// SplitterConfig tunes both the structural splitter's oversize handling
// and the size-based fallback splitter.
type SplitterConfig struct {
	MaxChunkSize int // characters
	Overlap      int // characters
	MinChunkSize int // characters, small structural siblings are coalesced below this
}

func (c SplitterConfig) withDefaults() SplitterConfig {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.Overlap < 0 {
		c.Overlap = DefaultChunkOverlap
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}
	return c
}

// Split is the single entry point used by the ChunkPipeline: it dispatches
// to the structural splitter for a supported language, falls back to the
// size-based splitter for unsupported languages, parse failures, or a parse
// that finds no declarations, and
// subdivides any oversized structural chunk with the same fallback.
// A whitespace-only file produces zero chunks; the Splitter contract that
// "any non-empty input yields at least one chunk" is scoped to inputs with
// non-whitespace content, matching the teacher's chunker.go convention.
func Split(text, language, filePath string, cfg SplitterConfig) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	cfg = cfg.withDefaults()

	if structuralLanguages[language] {
		if chunks := splitStructural(text, language, filePath); len(chunks) > 0 {
			return postProcessStructural(chunks, text, cfg)
		}
	}

	return splitBySize(text, language, filePath, cfg)
}

// postProcessStructural subdivides oversized chunks with the size-based
// fallback and coalesces undersized adjacent siblings.
func postProcessStructural(chunks []Chunk, text string, cfg SplitterConfig) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if len(c.Content) <= cfg.MaxChunkSize {
			out = append(out, c)
			continue
		}
		sub := splitBySize(c.Content, c.Language, c.FilePath, cfg)
		offset := c.StartLine - 1
		for i := range sub {
			sub[i].StartLine += offset
			sub[i].EndLine += offset
		}
		out = append(out, sub...)
	}
	return coalesceSmall(out, cfg.MinChunkSize)
}

// coalesceSmall merges an undersized chunk into its immediately following
// sibling, repeating until no adjacent pair is both small. This is a
// simplified stand-in for "share a parent" since this implementation does
// not track a real symbol tree alongside the flattened chunk list.
func coalesceSmall(chunks []Chunk, minSize int) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	merged := make([]Chunk, 0, len(chunks))
	i := 0
	for i < len(chunks) {
		cur := chunks[i]
		for len(cur.Content) < minSize && i+1 < len(chunks) && len(chunks[i+1].Content) < minSize {
			next := chunks[i+1]
			cur = Chunk{
				Content:      cur.Content + "\n" + next.Content,
				Language:     cur.Language,
				FilePath:     cur.FilePath,
				RelativePath: cur.RelativePath,
				StartLine:    cur.StartLine,
				EndLine:      next.EndLine,
			}
			i++
		}
		merged = append(merged, cur)
		i++
	}
	return merged
}

// splitBySize is the universal fallback: a sliding character window that
// prefers to break at the nearest preceding line boundary, with a
// character overlap carried into the next window. Grounded on the
// teacher's chunker.go paragraph/sentence windowing technique, generalized
// from markdown prose to arbitrary source text.
func splitBySize(text, language, filePath string, cfg SplitterConfig) []Chunk {
	if text == "" {
		return nil
	}

	var chunks []Chunk
	start := 0
	n := len(text)

	for start < n {
		end := start + cfg.MaxChunkSize
		if end >= n {
			end = n
		} else if idx := strings.LastIndexByte(text[start:end], '\n'); idx > 0 {
			end = start + idx + 1
		}

		content := text[start:end]
		startLine := 1 + strings.Count(text[:start], "\n")
		endLine := 1 + strings.Count(text[:end], "\n")

		chunks = append(chunks, Chunk{
			Content:   content,
			Language:  language,
			FilePath:  filePath,
			StartLine: startLine,
			EndLine:   endLine,
		})

		if end >= n {
			break
		}

		next := end - cfg.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
