package vectorstore

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

// sparseBatchSize mirrors the teacher's exact_searcher.go batching.
const sparseBatchSize = 1000

// newSparseIndex builds the in-memory bleve index every hybrid
// collection's sparse leg uses, grounded on the teacher's
// internal/mcp/exact_searcher.go buildBleveMapping.
func newSparseIndex() (bleve.Index, error) {
	indexMapping := sparseMapping()
	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create bleve index: %w", err)
	}
	return idx, nil
}

func sparseMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	content := bleve.NewTextFieldMapping()
	content.Analyzer = "standard"
	content.Store = false
	content.Index = true
	content.IncludeTermVectors = true

	keyword := func() *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = "keyword"
		m.Store = false
		m.Index = true
		return m
	}

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = "keyword"
	idField.Store = false
	idField.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("id", idField)
	docMapping.AddFieldMappingsAt("content", content)
	docMapping.AddFieldMappingsAt("relative_path", keyword())
	docMapping.AddFieldMappingsAt("file_extension", keyword())
	docMapping.AddFieldMappingsAt("language", keyword())

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func sparseDoc(d indexer.VectorDocument) map[string]any {
	return map[string]any{
		"id":             d.ID,
		"content":        d.Content,
		"relative_path":  d.RelativePath,
		"file_extension": d.FileExtension,
		"language":       d.Language,
	}
}

// insertSparse batch-indexes docs, flushing every sparseBatchSize entries
// and checking ctx between flushes, matching the teacher's indexChunks.
func insertSparse(ctx context.Context, idx bleve.Index, docs []indexer.VectorDocument) error {
	batch := idx.NewBatch()
	for i, d := range docs {
		if i%sparseBatchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if err := batch.Index(d.ID, sparseDoc(d)); err != nil {
			return fmt.Errorf("vectorstore: batch index %s: %w", d.ID, err)
		}
		if batch.Size() >= sparseBatchSize {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("vectorstore: execute batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("vectorstore: execute final batch: %w", err)
		}
	}
	return nil
}

func deleteSparse(idx bleve.Index, ids []string) error {
	batch := idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if batch.Size() == 0 {
		return nil
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("vectorstore: delete batch: %w", err)
	}
	return nil
}

// lookupFunc resolves a matched document id back to its VectorDocument;
// each backend supplies its own (an in-memory map for Store, a row query
// for SQLiteStore), since bleve's index itself stores no fields needed to
// reconstruct a full VectorDocument.
type lookupFunc func(id string) (indexer.VectorDocument, bool)

// searchSparse runs the sparse/lexical leg of a hybrid search: a
// query-string match against content, conjoined with an exact-match
// filter when the caller supplied a PathFilter or ExtensionFilter,
// grounded on the teacher's exactSearcher.Search.
func searchSparse(idx bleve.Index, lookup lookupFunc, text string, limit int, filter indexer.Filter) ([]indexer.SearchHit, error) {
	queries := []query.Query{bleve.NewQueryStringQuery(text)}

	if path, ok := indexer.AsPathFilter(filter); ok {
		q := bleve.NewMatchQuery(path)
		q.SetField("relative_path")
		queries = append(queries, q)
	} else if exts, ok := indexer.AsExtensionFilter(filter); ok && len(exts) > 0 {
		extQueries := make([]query.Query, len(exts))
		for i, ext := range exts {
			q := bleve.NewMatchQuery(ext)
			q.SetField("file_extension")
			extQueries[i] = q
		}
		queries = append(queries, bleve.NewDisjunctionQuery(extQueries...))
	}

	var finalQuery query.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	req := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	result, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: sparse search: %w", err)
	}

	hits := make([]indexer.SearchHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		doc, ok := lookup(h.ID)
		if !ok {
			continue
		}
		hits = append(hits, indexer.SearchHit{Doc: doc, Score: h.Score})
	}
	return hits, nil
}
