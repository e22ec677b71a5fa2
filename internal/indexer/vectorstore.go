package indexer

import (
	"context"
	"errors"
)

// ErrCollectionLimitReached is the sentinel a VectorStore.CreateCollection
// implementation returns (wrapped or bare, checked via errors.Is) when the
// backend refuses to create a new collection because it has hit an
// operator-configured ceiling. Per spec.md §4.6/§7 this is surfaced to the
// operator verbatim as a terminal, non-retryable result, distinct from a
// plain Fatal store error.
var ErrCollectionLimitReached = errors.New("vectorstore: collection limit reached")

// ErrCollectionAlreadyExists is the sentinel a VectorStore.CreateCollection
// implementation returns when the named collection already exists. Per
// spec.md §4.6 this is treated as success, not as a failure.
var ErrCollectionAlreadyExists = errors.New("vectorstore: collection already exists")

// SearchHit is one ranked result from VectorStore.Search or HybridSearch.
type SearchHit struct {
	Doc   VectorDocument
	Score float64
}

// SearchLeg is one independent retrieval pass fed into hybrid fusion: a
// dense leg carries a query vector, a sparse leg carries raw query text.
type SearchLeg struct {
	Name     string
	Vector   []float32
	Text     string
	IsSparse bool
}

// FusionStrategy selects how HybridSearch combines per-leg rankings.
type FusionStrategy string

const (
	FusionRRF      FusionStrategy = "rrf"
	FusionWeighted FusionStrategy = "weighted"
)

// HybridOptions configures HybridSearch: TopK bounds the result count,
// Strategy selects RRF or Weighted, RRFK is RRF's k parameter (default 60,
// IndexManager search uses 100), Weights applies to the Weighted strategy
// keyed by SearchLeg.Name, and Filter is an opaque filter built by one of
// the ExtensionFilter/PathFilter constructors.
type HybridOptions struct {
	TopK     int
	Strategy FusionStrategy
	RRFK     int
	Weights  map[string]float64
	Filter   Filter
}

// SearchOptions configures a single-leg Search call.
type SearchOptions struct {
	TopK      int
	Threshold float64 // 0 means unset: no threshold filtering
	Filter    Filter
}

// Filter is an opaque, store-supplied filter value. The core only ever
// constructs one via ExtensionFilter or PathFilter and passes it through
// unexamined, per spec.md §4.6.
type Filter interface {
	isFilter()
}

// VectorStore is the pluggable storage/retrieval backend contract from
// spec.md §4.6. Grounded on the teacher's storage.Storage interface shape,
// re-specified around named collections, dense/hybrid insert, and the
// fusion-search split the spec requires.
type VectorStore interface {
	CreateCollection(ctx context.Context, name string, dimension int, mode CollectionMode) error
	DropCollection(ctx context.Context, name string) error
	HasCollection(ctx context.Context, name string) (bool, error)
	ListCollections(ctx context.Context) ([]string, error)

	Insert(ctx context.Context, name string, docs []VectorDocument) error
	InsertHybrid(ctx context.Context, name string, docs []VectorDocument) error

	Search(ctx context.Context, name string, queryVector []float32, opts SearchOptions) ([]SearchHit, error)
	HybridSearch(ctx context.Context, name string, legs []SearchLeg, opts HybridOptions) ([]SearchHit, error)

	Query(ctx context.Context, name string, filter Filter, outputFields []string, limit int) ([]VectorDocument, error)
	Delete(ctx context.Context, name string, ids []string) error

	// ExtensionFilter and PathFilter build the only two filter kinds the
	// core ever consumes; backend-specific filter syntax never leaks out.
	ExtensionFilter(extensions []string) Filter
	PathFilter(relativePath string) Filter
}
