package vectorstore

import "github.com/mvp-joe/contextindex/internal/indexer"

// matchesFilter reports whether doc satisfies f, the fallback applied
// after a backend's native query already did the bulk of the filtering
// (chromem's WHERE clause only matches a single exact value; bleve's
// query already applies filters natively and never needs this).
func matchesFilter(doc indexer.VectorDocument, f indexer.Filter) bool {
	if f == nil {
		return true
	}
	if path, ok := indexer.AsPathFilter(f); ok {
		return doc.RelativePath == path
	}
	if exts, ok := indexer.AsExtensionFilter(f); ok {
		for _, ext := range exts {
			if doc.FileExtension == ext {
				return true
			}
		}
		return false
	}
	return true
}
