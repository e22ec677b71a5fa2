package indexer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// pendingChunk is one buffered (chunk, codebase_root) pair awaiting flush.
type pendingChunk struct {
	chunk        Chunk
	codebaseRoot string
}

// ChunkPipeline buffers chunks produced while walking a file list, flushing
// to the embedding client and vector store in fixed-size batches. Grounded
// on spec.md §4.7; the buffering/flush split generalizes the teacher's
// processor.go batch loop from a single fixed batch size to a configurable
// one with a hard chunk-count ceiling.
type ChunkPipeline struct {
	Collection Collection
	Embedder   EmbeddingClient
	Store      VectorStore
	Splitter   SplitterConfig
	BatchSize  int
	ChunkLimit int
	Logger     *slog.Logger

	buffer        []pendingChunk
	processedFile int
	totalChunks   int
}

// NewChunkPipeline constructs a pipeline with defaults applied for any
// zero-valued tuning field.
func NewChunkPipeline(collection Collection, embedder EmbeddingClient, store VectorStore, splitter SplitterConfig, batchSize, chunkLimit int, logger *slog.Logger) *ChunkPipeline {
	if batchSize < 1 {
		batchSize = DefaultEmbeddingBatchSize
	}
	if chunkLimit <= 0 {
		chunkLimit = DefaultChunkLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkPipeline{
		Collection: collection,
		Embedder:   embedder,
		Store:      store,
		Splitter:   splitter,
		BatchSize:  batchSize,
		ChunkLimit: chunkLimit,
		Logger:     logger,
	}
}

// Run processes every file path in order: read, split, buffer, flush at
// BatchSize, and stop early (status limit_reached) once ChunkLimit chunks
// have been produced. codebaseRoot is used to compute each file's relative
// path and carried alongside every buffered chunk.
func (p *ChunkPipeline) Run(ctx context.Context, codebaseRoot string, filePaths []string, progress ProgressFunc) IndexStats {
	total := len(filePaths)
	for i, absPath := range filePaths {
		select {
		case <-ctx.Done():
			return p.finish(StatusFailed)
		default:
		}

		reportProgress(progress, PhaseProcessingFiles, i+1, total)

		content, err := os.ReadFile(absPath)
		if err != nil {
			p.Logger.Warn("read failed, skipping file", "path", absPath, "error", err)
			continue
		}

		language := LanguageForPath(absPath)
		relPath := relativeTo(codebaseRoot, absPath)

		chunks := func() (chunks []Chunk) {
			defer func() {
				if r := recover(); r != nil {
					p.Logger.Warn("splitter panicked, skipping file", "path", absPath, "recover", r)
					chunks = nil
				}
			}()
			return Split(string(content), language, absPath, p.Splitter)
		}()

		p.processedFile++

		for _, c := range chunks {
			c.RelativePath = relPath
			c.Language = language
			p.buffer = append(p.buffer, pendingChunk{chunk: c, codebaseRoot: codebaseRoot})
			p.totalChunks++

			if len(p.buffer) >= p.BatchSize {
				p.flush(ctx)
			}

			if p.totalChunks >= p.ChunkLimit {
				p.flush(ctx)
				return p.finish(StatusLimitReached)
			}
		}
	}

	p.flush(ctx)
	return p.finish(StatusCompleted)
}

func (p *ChunkPipeline) finish(status IndexStatus) IndexStats {
	return IndexStats{
		IndexedFiles: p.processedFile,
		TotalChunks:  p.totalChunks,
		Status:       status,
	}
}

// flush computes ids, embeds, and inserts the buffered chunks. Per
// spec.md §4.7.1, any failure empties the buffer unconditionally and lets
// indexing of remaining files continue.
func (p *ChunkPipeline) flush(ctx context.Context) {
	if len(p.buffer) == 0 {
		return
	}
	batch := p.buffer
	p.buffer = nil

	texts := make([]string, len(batch))
	for i, pc := range batch {
		texts[i] = pc.chunk.Content
	}
	texts = preprocessInputs(texts, p.Embedder.MaxInputChars())

	vectors, err := p.Embedder.EmbedBatch(ctx, texts, EmbedModePassage)
	if err != nil {
		p.Logger.Warn("embedding batch failed, dropping batch", "size", len(batch), "error", err)
		return
	}
	if len(vectors) != len(batch) {
		p.Logger.Warn("embedding batch returned wrong vector count, dropping batch",
			"expected", len(batch), "got", len(vectors))
		return
	}

	docs := make([]VectorDocument, len(batch))
	for i, pc := range batch {
		c := pc.chunk
		docs[i] = VectorDocument{
			ID:            chunkID(p.Collection.IDStyle, c.RelativePath, c.StartLine, c.EndLine, c.Content),
			Vector:        vectors[i],
			Content:       c.Content,
			RelativePath:  c.RelativePath,
			FileExtension: extOf(c.RelativePath),
			StartLine:     c.StartLine,
			EndLine:       c.EndLine,
			Language:      c.Language,
			Metadata:      chunkMetadata(c, pc.codebaseRoot, i),
		}
	}

	var insertErr error
	if p.Collection.Mode == ModeHybrid {
		insertErr = p.Store.InsertHybrid(ctx, p.Collection.Name, docs)
	} else {
		insertErr = p.Store.Insert(ctx, p.Collection.Name, docs)
	}
	if insertErr != nil {
		p.Logger.Warn("insert failed, dropping batch", "size", len(docs), "error", insertErr)
	}
}

// chunkMetadata builds a VectorDocument's metadata map: any extra key/value
// pairs the splitter attached to the chunk, plus the three keys spec.md
// §4.7.1 always requires. chunkIndex is the chunk's position within its
// flush batch, not a globally unique index.
func chunkMetadata(c Chunk, codebaseRoot string, chunkIndex int) map[string]any {
	meta := make(map[string]any, len(c.Metadata)+3)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta["language"] = c.Language
	meta["codebase_path"] = codebaseRoot
	meta["chunk_index"] = chunkIndex
	return meta
}

// relativeTo returns absPath relative to root, using forward slashes, or
// absPath unchanged if it cannot be made relative.
func relativeTo(root, absPath string) string {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}

// extOf returns a path's lowercase extension, including the leading dot.
func extOf(relPath string) string {
	return strings.ToLower(filepath.Ext(relPath))
}
