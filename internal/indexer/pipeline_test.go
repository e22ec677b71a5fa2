package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dim       int
	maxChars  int
	failAfter int // fail every EmbedBatch call at/after this call count, 0 = never
	calls     int
	short     bool // return fewer vectors than requested
}

func (f *fakeEmbedder) Dimension(ctx context.Context) (int, error) { return f.dim, nil }

func (f *fakeEmbedder) Embed(ctx context.Context, text string, mode EmbedMode) ([]float32, error) {
	v, err := f.EmbedBatch(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, newTerminalError(KindEmbeddingPermanent, "no vector returned", nil)
	}
	return v[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	f.calls++
	if f.failAfter != 0 && f.calls >= f.failAfter {
		return nil, newTerminalError(KindEmbeddingTransient, "simulated failure", errors.New("boom"))
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	if f.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) MaxInputChars() int { return f.maxChars }

type fakeStore struct {
	collections map[string]Collection
	docs        map[string][]VectorDocument
	insertErr   error
	createErr   error // returned verbatim by CreateCollection when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{collections: map[string]Collection{}, docs: map[string][]VectorDocument{}}
}

func (s *fakeStore) CreateCollection(ctx context.Context, name string, dimension int, mode CollectionMode) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.collections[name] = Collection{Name: name, Dimension: dimension, Mode: mode}
	return nil
}
func (s *fakeStore) DropCollection(ctx context.Context, name string) error {
	delete(s.collections, name)
	delete(s.docs, name)
	return nil
}
func (s *fakeStore) HasCollection(ctx context.Context, name string) (bool, error) {
	_, ok := s.collections[name]
	return ok, nil
}
func (s *fakeStore) ListCollections(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	return names, nil
}
func (s *fakeStore) Insert(ctx context.Context, name string, docs []VectorDocument) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.docs[name] = append(s.docs[name], dedupeByID(docs)...)
	return nil
}
func (s *fakeStore) InsertHybrid(ctx context.Context, name string, docs []VectorDocument) error {
	return s.Insert(ctx, name, docs)
}
func (s *fakeStore) Search(ctx context.Context, name string, queryVector []float32, opts SearchOptions) ([]SearchHit, error) {
	return nil, nil
}
func (s *fakeStore) HybridSearch(ctx context.Context, name string, legs []SearchLeg, opts HybridOptions) ([]SearchHit, error) {
	return nil, nil
}
func (s *fakeStore) Query(ctx context.Context, name string, filter Filter, outputFields []string, limit int) ([]VectorDocument, error) {
	pf, ok := filter.(*pathFilterValue)
	if !ok {
		return s.docs[name], nil
	}
	var out []VectorDocument
	for _, d := range s.docs[name] {
		if d.RelativePath == pf.path {
			out = append(out, d)
		}
	}
	return out, nil
}
func (s *fakeStore) Delete(ctx context.Context, name string, ids []string) error {
	idSet := map[string]bool{}
	for _, id := range ids {
		idSet[id] = true
	}
	var kept []VectorDocument
	for _, d := range s.docs[name] {
		if !idSet[d.ID] {
			kept = append(kept, d)
		}
	}
	s.docs[name] = kept
	return nil
}
func (s *fakeStore) ExtensionFilter(extensions []string) Filter { return &extFilterValue{extensions} }
func (s *fakeStore) PathFilter(relativePath string) Filter      { return &pathFilterValue{relativePath} }

type extFilterValue struct{ extensions []string }

func (*extFilterValue) isFilter() {}

type pathFilterValue struct{ path string }

func (*pathFilterValue) isFilter() {}

func dedupeByID(docs []VectorDocument) []VectorDocument {
	seen := map[string]int{}
	var out []VectorDocument
	for _, d := range docs {
		if idx, ok := seen[d.ID]; ok {
			out[idx] = d
			continue
		}
		seen[d.ID] = len(out)
		out = append(out, d)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestChunkPipeline_FlushesAtBatchSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\nworld\nfoo\nbar\nbaz"), 0o644))

	store := newFakeStore()
	collection := Collection{Name: "code_chunks_test", Dimension: 1, Mode: ModePlain, IDStyle: IDStyleOpaque}
	embedder := &fakeEmbedder{dim: 1, maxChars: 10000}

	pipeline := NewChunkPipeline(collection, embedder, store, SplitterConfig{MaxChunkSize: 5, Overlap: 0, MinChunkSize: 1}, 2, 0, testLogger())
	stats := pipeline.Run(context.Background(), dir, []string{filepath.Join(dir, "a.txt")}, nil)

	assert.Equal(t, StatusCompleted, stats.Status)
	assert.Equal(t, 1, stats.IndexedFiles)
	assert.Greater(t, stats.TotalChunks, 0)
	assert.Len(t, store.docs[collection.Name], stats.TotalChunks)
}

func TestChunkPipeline_FlushPopulatesRequiredMetadata(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\nworld\nfoo\nbar\nbaz"), 0o644))

	store := newFakeStore()
	collection := Collection{Name: "code_chunks_test", Dimension: 1, Mode: ModePlain, IDStyle: IDStyleOpaque}
	embedder := &fakeEmbedder{dim: 1, maxChars: 10000}

	pipeline := NewChunkPipeline(collection, embedder, store, SplitterConfig{MaxChunkSize: 5, Overlap: 0, MinChunkSize: 1}, 2, 0, testLogger())
	stats := pipeline.Run(context.Background(), dir, []string{filepath.Join(dir, "a.txt")}, nil)
	require.Equal(t, StatusCompleted, stats.Status)

	docs := store.docs[collection.Name]
	require.NotEmpty(t, docs)

	seenIndices := map[string]bool{}
	for _, d := range docs {
		require.NotNil(t, d.Metadata)
		assert.Equal(t, d.Language, d.Metadata["language"])
		assert.Equal(t, dir, d.Metadata["codebase_path"])
		assert.Contains(t, d.Metadata, "chunk_index")
		seenIndices[fmt.Sprint(d.Metadata["chunk_index"])] = true
	}
	// chunk_index resets to 0 at the start of each batch, so it's not
	// globally unique across the whole run per spec.md §4.7.1.
	assert.Contains(t, seenIndices, "0")
}

func TestChunkPipeline_ReadFailureSkipsFileAndContinues(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("content here"), 0o644))
	missing := filepath.Join(dir, "missing.txt")

	store := newFakeStore()
	collection := Collection{Name: "c", Dimension: 1, Mode: ModePlain, IDStyle: IDStyleOpaque}
	embedder := &fakeEmbedder{dim: 1, maxChars: 10000}

	pipeline := NewChunkPipeline(collection, embedder, store, SplitterConfig{}, 100, 0, testLogger())
	stats := pipeline.Run(context.Background(), dir, []string{missing, good}, nil)

	assert.Equal(t, StatusCompleted, stats.Status)
	assert.Equal(t, 1, stats.IndexedFiles, "only the readable file counts as processed")
}

func TestChunkPipeline_EmbeddingFailureDropsBatchButContinues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second file"), 0o644))

	store := newFakeStore()
	collection := Collection{Name: "c", Dimension: 1, Mode: ModePlain, IDStyle: IDStyleOpaque}
	embedder := &fakeEmbedder{dim: 1, maxChars: 10000, failAfter: 1}

	pipeline := NewChunkPipeline(collection, embedder, store, SplitterConfig{}, 1, 0, testLogger())
	stats := pipeline.Run(context.Background(), dir, []string{
		filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"),
	}, nil)

	assert.Equal(t, StatusCompleted, stats.Status)
	assert.Equal(t, 2, stats.IndexedFiles)
	assert.Empty(t, store.docs[collection.Name], "every batch failed to embed, nothing should be inserted")
}

func TestChunkPipeline_ShortVectorBatchIsDropped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0o644))

	store := newFakeStore()
	collection := Collection{Name: "c", Dimension: 1, Mode: ModePlain, IDStyle: IDStyleOpaque}
	embedder := &fakeEmbedder{dim: 1, maxChars: 10000, short: true}

	pipeline := NewChunkPipeline(collection, embedder, store, SplitterConfig{}, 100, 0, testLogger())
	stats := pipeline.Run(context.Background(), dir, []string{filepath.Join(dir, "a.txt")}, nil)

	assert.Equal(t, StatusCompleted, stats.Status)
	assert.Empty(t, store.docs[collection.Name])
}

func TestChunkPipeline_ChunkLimitStopsEarly(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		p := filepath.Join(dir, "f"+string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(p, []byte("one chunk of text"), 0o644))
		paths = append(paths, p)
	}

	store := newFakeStore()
	collection := Collection{Name: "c", Dimension: 1, Mode: ModePlain, IDStyle: IDStyleOpaque}
	embedder := &fakeEmbedder{dim: 1, maxChars: 10000}

	pipeline := NewChunkPipeline(collection, embedder, store, SplitterConfig{}, 100, 2, testLogger())
	stats := pipeline.Run(context.Background(), dir, paths, nil)

	assert.Equal(t, StatusLimitReached, stats.Status)
	assert.GreaterOrEqual(t, stats.TotalChunks, 2)
}
