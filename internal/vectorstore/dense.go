package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

// denseOverfetchMultiplier mirrors the teacher's chromemSearcher
// DefaultResultMultiplier: chromem's WHERE clause only matches a single
// exact value, so a multi-value ExtensionFilter needs post-filter headroom.
const denseOverfetchMultiplier = 2

// denseDoc maps a VectorDocument onto chromem's map[string]string metadata.
// chromem.Metadata is serialize-by-convention, so the full Metadata map
// (language/codebase_path/chunk_index plus anything the splitter attached)
// round-trips as one JSON-encoded field rather than per-key columns.
func denseDoc(d indexer.VectorDocument) chromem.Document {
	metaJSON, err := json.Marshal(d.Metadata)
	if err != nil {
		metaJSON = []byte("null")
	}
	return chromem.Document{
		ID:        d.ID,
		Content:   d.Content,
		Embedding: d.Vector,
		Metadata: map[string]string{
			"relative_path":  d.RelativePath,
			"file_extension": d.FileExtension,
			"language":       d.Language,
			"start_line":     strconv.Itoa(d.StartLine),
			"end_line":       strconv.Itoa(d.EndLine),
			"metadata_json":  string(metaJSON),
		},
	}
}

func docFromDenseResult(r chromem.Result) indexer.VectorDocument {
	meta := r.Metadata
	startLine, _ := strconv.Atoi(meta["start_line"])
	endLine, _ := strconv.Atoi(meta["end_line"])
	var docMeta map[string]any
	_ = json.Unmarshal([]byte(meta["metadata_json"]), &docMeta)
	return indexer.VectorDocument{
		ID:            r.ID,
		Vector:        r.Embedding,
		Content:       r.Content,
		RelativePath:  meta["relative_path"],
		FileExtension: meta["file_extension"],
		Language:      meta["language"],
		StartLine:     startLine,
		EndLine:       endLine,
		Metadata:      docMeta,
	}
}

func insertDense(ctx context.Context, coll *chromem.Collection, docs []indexer.VectorDocument) error {
	for _, d := range docs {
		if err := coll.AddDocument(ctx, denseDoc(d)); err != nil {
			return fmt.Errorf("vectorstore: add dense document %s: %w", d.ID, err)
		}
	}
	return nil
}

// denseWhereFilter builds chromem's native exact-match WHERE clause.
// PathFilter maps directly; a single-extension ExtensionFilter maps
// directly too, but a multi-extension one is left to post-filtering
// since chromem's WHERE only expresses equality, not membership.
func denseWhereFilter(f indexer.Filter) map[string]string {
	if f == nil {
		return nil
	}
	if path, ok := indexer.AsPathFilter(f); ok {
		return map[string]string{"relative_path": path}
	}
	if exts, ok := indexer.AsExtensionFilter(f); ok && len(exts) == 1 {
		return map[string]string{"file_extension": exts[0]}
	}
	return nil
}

func searchDense(ctx context.Context, coll *chromem.Collection, queryVector []float32, opts indexer.SearchOptions) ([]indexer.SearchHit, error) {
	limit := opts.TopK
	if limit <= 0 {
		limit = 10
	}

	nResults := limit * denseOverfetchMultiplier
	if count := coll.Count(); nResults > count {
		nResults = count
	}
	if nResults == 0 {
		return nil, nil
	}

	results, err := coll.QueryEmbedding(ctx, queryVector, nResults, denseWhereFilter(opts.Filter), nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dense query: %w", err)
	}

	hits := make([]indexer.SearchHit, 0, len(results))
	for _, r := range results {
		doc := docFromDenseResult(r)
		if !matchesFilter(doc, opts.Filter) {
			continue
		}
		if opts.Threshold > 0 && float64(r.Similarity) < opts.Threshold {
			continue
		}
		hits = append(hits, indexer.SearchHit{Doc: doc, Score: float64(r.Similarity)})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}
