package indexer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// CollectionName derives the store collection name for a codebase path,
// per spec.md §4.8: "(hybrid_?)code_chunks_" followed by the first 8 hex
// characters of md5(canonical absolute path).
func CollectionName(codebaseRoot string, hybrid bool) (string, error) {
	abs, err := filepath.Abs(codebaseRoot)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(abs))
	suffix := hex.EncodeToString(sum[:])[:8]
	if hybrid {
		return "hybrid_code_chunks_" + suffix, nil
	}
	return "code_chunks_" + suffix, nil
}

// ManagerConfig tunes one IndexManager instance across every codebase it
// serves; values mirror spec.md §6's configuration surface.
type ManagerConfig struct {
	Hybrid             bool
	EmbeddingBatchSize int
	ChunkLimit         int
	Splitter           SplitterConfig
	Extensions         []string
	IgnorePatterns     []string
	RRFK               int // used by Search's hybrid_search call, default 100
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.EmbeddingBatchSize < 1 {
		c.EmbeddingBatchSize = DefaultEmbeddingBatchSize
	}
	if c.ChunkLimit <= 0 {
		c.ChunkLimit = DefaultChunkLimit
	}
	if c.RRFK <= 0 {
		c.RRFK = 100
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	return c
}

// IndexManager drives index/reindex/search/clear for any number of
// codebase paths, enforcing the single-logical-owner concurrency rule from
// spec.md §5: at most one active operation per codebase path at a time,
// while distinct codebase paths proceed in parallel sharing the embedder
// and store. Grounded on the teacher's indexer.go orchestration shape,
// re-specified around the Merkle-diff reindex and hybrid search this spec
// requires.
type IndexManager struct {
	Embedder EmbeddingClient
	Store    VectorStore
	Config   ManagerConfig
	Logger   *slog.Logger

	mu     sync.Mutex
	active map[string]bool // codebase root -> in-flight
}

// NewIndexManager constructs a manager sharing one embedder/store across
// every codebase it is asked to index or search.
func NewIndexManager(embedder EmbeddingClient, store VectorStore, cfg ManagerConfig, logger *slog.Logger) *IndexManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexManager{
		Embedder: embedder,
		Store:    store,
		Config:   cfg.withDefaults(),
		Logger:   logger,
		active:   map[string]bool{},
	}
}

// acquire marks codebaseRoot as actively indexing, failing fast with
// ErrAlreadyIndexing if it already is.
func (m *IndexManager) acquire(codebaseRoot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[codebaseRoot] {
		return ErrAlreadyIndexing
	}
	m.active[codebaseRoot] = true
	return nil
}

func (m *IndexManager) release(codebaseRoot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, codebaseRoot)
}

// Index performs a full (re)index of codebaseRoot. If forceReindex is true
// and the collection already exists, it is dropped and recreated first.
// When the pipeline completes, a fresh MerkleSnapshot is saved so a later
// ReindexByChange diffs against it; a failure to save it is logged and
// does not fail the index.
func (m *IndexManager) Index(ctx context.Context, codebaseRoot string, forceReindex bool, progress ProgressFunc) (*IndexResult, error) {
	if err := m.acquire(codebaseRoot); err != nil {
		return nil, err
	}
	defer m.release(codebaseRoot)

	reportProgress(progress, PhasePreparingCollection, 0, 0)

	name, err := CollectionName(codebaseRoot, m.Config.Hybrid)
	if err != nil {
		return nil, newTerminalError(KindStoreError, "collection name derivation failed", err)
	}

	collection, err := m.ensureCollection(ctx, name)
	if err != nil {
		return result(IndexStats{Status: StatusFailed}, err), err
	}

	if forceReindex {
		exists, err := m.Store.HasCollection(ctx, name)
		if err != nil {
			return result(IndexStats{Status: StatusFailed}, err), err
		}
		if exists {
			if err := m.Store.DropCollection(ctx, name); err != nil {
				return result(IndexStats{Status: StatusFailed}, err), err
			}
			if err := m.Store.CreateCollection(ctx, name, collection.Dimension, collection.Mode); err != nil {
				return result(IndexStats{Status: StatusFailed}, err), err
			}
		}
	}

	reportProgress(progress, PhaseScanningFiles, 0, 0)

	ignore, err := BuildIgnoreMatcher(codebaseRoot, m.Config.IgnorePatterns)
	if err != nil {
		return result(IndexStats{Status: StatusFailed}, err), err
	}
	walker := NewWalker(codebaseRoot, m.Config.Extensions, ignore)
	files, err := walker.Walk(ctx)
	if err != nil {
		tErr := newTerminalError(KindWalkError, "walk failed", err)
		return result(IndexStats{Status: StatusFailed}, tErr), tErr
	}

	pipeline := NewChunkPipeline(collection, m.Embedder, m.Store, m.Config.Splitter,
		m.Config.EmbeddingBatchSize, m.Config.ChunkLimit, m.Logger)

	stats := pipeline.Run(ctx, codebaseRoot, files, progress)

	if stats.Status == StatusCompleted {
		snap, err := BuildSnapshot(ctx, codebaseRoot, ignore, m.Config.Extensions)
		if err == nil {
			err = SaveSnapshot(snap)
		}
		if err != nil {
			m.Logger.Warn("saving snapshot after index failed", "root", codebaseRoot, "error", err)
		}
	}

	reportProgress(progress, PhaseIndexingComplete, len(files), len(files))

	return result(stats, nil), nil
}

// ReindexByChange builds a fresh MerkleSnapshot, diffs it against the
// persisted one, deletes chunks for removed/modified paths, pipeline-
// indexes added+modified paths, and persists the new snapshot only after
// success, per spec.md §4.8.
func (m *IndexManager) ReindexByChange(ctx context.Context, codebaseRoot string, progress ProgressFunc) (*IndexResult, error) {
	if err := m.acquire(codebaseRoot); err != nil {
		return nil, err
	}
	defer m.release(codebaseRoot)

	reportProgress(progress, PhaseScanningFiles, 0, 0)

	ignore, err := BuildIgnoreMatcher(codebaseRoot, m.Config.IgnorePatterns)
	if err != nil {
		return result(IndexStats{Status: StatusFailed}, err), err
	}

	oldSnap, _, err := LoadSnapshot(codebaseRoot)
	if err != nil {
		tErr := newTerminalError(KindSnapshotError, "loading previous snapshot failed", err)
		return result(IndexStats{Status: StatusFailed}, tErr), tErr
	}

	newSnap, err := BuildSnapshot(ctx, codebaseRoot, ignore, m.Config.Extensions)
	if err != nil {
		return result(IndexStats{Status: StatusFailed}, err), err
	}

	diff := DiffSnapshots(oldSnap, newSnap)

	name, err := CollectionName(codebaseRoot, m.Config.Hybrid)
	if err != nil {
		return result(IndexStats{Status: StatusFailed}, err), err
	}
	collection, err := m.ensureCollection(ctx, name)
	if err != nil {
		return result(IndexStats{Status: StatusFailed}, err), err
	}

	for _, relPath := range append(append([]string{}, diff.Removed...), diff.Modified...) {
		if err := m.deleteByPath(ctx, name, relPath); err != nil {
			m.Logger.Warn("delete by path failed during reindex", "path", relPath, "error", err)
		}
	}

	toIndex := append(append([]string{}, diff.Added...), diff.Modified...)
	absPaths := make([]string, 0, len(toIndex))
	for _, rel := range toIndex {
		absPaths = append(absPaths, filepath.Join(codebaseRoot, filepath.FromSlash(rel)))
	}

	pipeline := NewChunkPipeline(collection, m.Embedder, m.Store, m.Config.Splitter,
		m.Config.EmbeddingBatchSize, m.Config.ChunkLimit, m.Logger)

	stats := pipeline.Run(ctx, codebaseRoot, absPaths, progress)

	if stats.Status == StatusCompleted {
		if err := SaveSnapshot(newSnap); err != nil {
			tErr := newTerminalError(KindSnapshotError, "saving new snapshot failed", err)
			return result(stats, tErr), tErr
		}
	}

	reportProgress(progress, PhaseIndexingComplete, len(absPaths), len(absPaths))
	return result(stats, nil), nil
}

// deleteByPath finds every chunk whose relative_path equals relPath via a
// point query, then deletes their ids.
func (m *IndexManager) deleteByPath(ctx context.Context, collectionName, relPath string) error {
	filter := m.Store.PathFilter(relPath)
	records, err := m.Store.Query(ctx, collectionName, filter, []string{"id"}, 0)
	if err != nil {
		return newTerminalError(KindStoreError, "query by path failed", err)
	}
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return m.Store.Delete(ctx, collectionName, ids)
}

// ManagerSearchOptions configures an IndexManager.Search call.
type ManagerSearchOptions struct {
	TopK      int
	Threshold float64
	Filter    Filter
}

// Search embeds the query and, for a hybrid collection, fuses a dense
// and a sparse leg via RRF (k=100); otherwise it runs a plain similarity
// search.
func (m *IndexManager) Search(ctx context.Context, codebaseRoot, query string, opts ManagerSearchOptions) ([]SearchResult, error) {
	name, err := CollectionName(codebaseRoot, m.Config.Hybrid)
	if err != nil {
		return nil, newTerminalError(KindStoreError, "collection name derivation failed", err)
	}

	queryVec, err := m.Embedder.Embed(ctx, query, EmbedModeQuery)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	if m.Config.Hybrid {
		legs := []SearchLeg{
			{Name: "dense", Vector: queryVec},
			{Name: "sparse", Text: query, IsSparse: true},
		}
		hits, err = m.Store.HybridSearch(ctx, name, legs, HybridOptions{
			TopK:     opts.TopK,
			Strategy: FusionRRF,
			RRFK:     m.Config.RRFK,
			Filter:   opts.Filter,
		})
	} else {
		hits, err = m.Store.Search(ctx, name, queryVec, SearchOptions{
			TopK:      opts.TopK,
			Threshold: opts.Threshold,
			Filter:    opts.Filter,
		})
	}
	if err != nil {
		return nil, newTerminalError(KindStoreError, "search failed", err)
	}

	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = SearchResult{
			Content:      h.Doc.Content,
			RelativePath: h.Doc.RelativePath,
			Language:     h.Doc.Language,
			StartLine:    h.Doc.StartLine,
			EndLine:      h.Doc.EndLine,
			Score:        h.Score,
		}
	}
	return results, nil
}

// Clear drops the collection (if present) and deletes the persisted
// snapshot. Both steps are best-effort and independent.
func (m *IndexManager) Clear(ctx context.Context, codebaseRoot string) error {
	name, err := CollectionName(codebaseRoot, m.Config.Hybrid)
	if err != nil {
		return newTerminalError(KindStoreError, "collection name derivation failed", err)
	}

	var firstErr error
	if exists, err := m.Store.HasCollection(ctx, name); err == nil && exists {
		if err := m.Store.DropCollection(ctx, name); err != nil {
			firstErr = newTerminalError(KindStoreError, "drop collection failed", err)
		}
	} else if err != nil {
		firstErr = newTerminalError(KindStoreError, "has_collection check failed", err)
	}

	if p, err := SnapshotPath(codebaseRoot); err == nil {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.Logger.Warn("snapshot delete failed", "path", p, "error", err)
		}
	}

	return firstErr
}

func (m *IndexManager) ensureCollection(ctx context.Context, name string) (Collection, error) {
	mode := ModePlain
	idStyle := IDStyleOpaque
	if m.Config.Hybrid {
		mode = ModeHybrid
	}

	exists, err := m.Store.HasCollection(ctx, name)
	if err != nil {
		return Collection{}, newTerminalError(KindStoreError, "has_collection check failed", err)
	}

	dim, err := m.Embedder.Dimension(ctx)
	if err != nil {
		return Collection{}, newTerminalError(KindEmbeddingPermanent, "dimension discovery failed", err)
	}

	if !exists {
		if err := m.Store.CreateCollection(ctx, name, dim, mode); err != nil {
			switch {
			case errors.Is(err, ErrCollectionAlreadyExists):
				// Treated as success per spec.md §4.6.
			case errors.Is(err, ErrCollectionLimitReached):
				return Collection{}, newTerminalError(KindCollectionLimitReached, CollectionLimitMessage, err)
			default:
				return Collection{}, newTerminalError(KindStoreError, "create_collection failed", err)
			}
		}
	}

	return Collection{Name: name, Dimension: dim, Mode: mode, IDStyle: idStyle}, nil
}

func result(stats IndexStats, err error) *IndexResult {
	r := &IndexResult{Stats: stats}
	if err != nil {
		if tErr, ok := err.(*TerminalError); ok {
			r.Err = tErr
		} else {
			r.Err = newTerminalError(KindStoreError, "unexpected error", err)
		}
	}
	return r
}

