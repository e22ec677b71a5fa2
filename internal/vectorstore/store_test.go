package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

func doc(id, path, ext string, vec []float32) indexer.VectorDocument {
	return indexer.VectorDocument{
		ID:            id,
		Vector:        vec,
		Content:       "package foo\n\nfunc " + id + "() {}",
		RelativePath:  path,
		FileExtension: ext,
		Language:      "go",
		StartLine:     1,
		EndLine:       3,
		Metadata: map[string]any{
			"language":      "go",
			"codebase_path": "/repo",
			"chunk_index":   float64(0),
		},
	}
}

func TestStore_CreateAndListCollections(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "repo-a", 4, indexer.ModePlain))

	ok, err := s.HasCollection(ctx, "repo-a")
	require.NoError(t, err)
	assert.True(t, ok)

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"repo-a"}, names)

	require.NoError(t, s.DropCollection(ctx, "repo-a"))
	ok, err = s.HasCollection(ctx, "repo-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_InsertAndSearchDense(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "repo-a", 3, indexer.ModePlain))

	require.NoError(t, s.Insert(ctx, "repo-a", []indexer.VectorDocument{
		doc("a", "a.go", ".go", []float32{1, 0, 0}),
		doc("b", "b.go", ".go", []float32{0, 1, 0}),
	}))

	hits, err := s.Search(ctx, "repo-a", []float32{1, 0, 0}, indexer.SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "a", hits[0].Doc.ID)
	assert.Equal(t, "go", hits[0].Doc.Metadata["language"])
	assert.Equal(t, "/repo", hits[0].Doc.Metadata["codebase_path"])
	assert.Equal(t, float64(0), hits[0].Doc.Metadata["chunk_index"])
}

func TestStore_InsertHybridRequiresHybridCollection(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "repo-a", 3, indexer.ModePlain))

	err := s.InsertHybrid(ctx, "repo-a", []indexer.VectorDocument{doc("a", "a.go", ".go", []float32{1, 0, 0})})
	assert.Error(t, err)
}

func TestStore_HybridSearchFusesDenseAndSparseLegs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "repo-a", 3, indexer.ModeHybrid))

	docs := []indexer.VectorDocument{
		doc("a", "a.go", ".go", []float32{1, 0, 0}),
		doc("b", "b.go", ".go", []float32{0, 1, 0}),
	}
	require.NoError(t, s.InsertHybrid(ctx, "repo-a", docs))

	legs := []indexer.SearchLeg{
		{Name: "dense", Vector: []float32{1, 0, 0}},
		{Name: "sparse", Text: "foo", IsSparse: true},
	}
	hits, err := s.HybridSearch(ctx, "repo-a", legs, indexer.HybridOptions{TopK: 5, Strategy: indexer.FusionRRF})
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestStore_QueryByPathFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "repo-a", 3, indexer.ModePlain))
	require.NoError(t, s.Insert(ctx, "repo-a", []indexer.VectorDocument{
		doc("a", "a.go", ".go", []float32{1, 0, 0}),
		doc("b", "b.go", ".go", []float32{0, 1, 0}),
	}))

	results, err := s.Query(ctx, "repo-a", s.PathFilter("a.go"), []string{"id"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestStore_DeleteRemovesDocuments(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "repo-a", 3, indexer.ModePlain))
	require.NoError(t, s.Insert(ctx, "repo-a", []indexer.VectorDocument{
		doc("a", "a.go", ".go", []float32{1, 0, 0}),
	}))

	require.NoError(t, s.Delete(ctx, "repo-a", []string{"a"}))

	results, err := s.Query(ctx, "repo-a", nil, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_SearchUnknownCollectionErrors(t *testing.T) {
	s := NewStore()
	_, err := s.Search(context.Background(), "missing", []float32{1}, indexer.SearchOptions{})
	assert.Error(t, err)
}
