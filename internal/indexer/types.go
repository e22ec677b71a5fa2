// Package indexer implements codebase discovery, chunking, Merkle-based
// incremental sync, and hybrid vector/lexical indexing and retrieval.
package indexer

import "time"

// Chunk is a unit of source text extracted from a single file, ready for
// embedding and storage. StartLine/EndLine are 1-indexed and inclusive.
// Metadata carries any extra key/value pairs a splitter wants attached to
// the eventual VectorDocument; it may be nil.
type Chunk struct {
	Content      string
	Language     string
	FilePath     string // absolute path on disk
	RelativePath string // relative to the codebase root
	StartLine    int
	EndLine      int
	Metadata     map[string]any
}

// VectorDocument is a Chunk paired with its embedding vector and the
// metadata a VectorStore needs to filter and identify it. Per spec.md
// §4.7.1, Metadata always carries at least {language, codebase_path,
// chunk_index} in addition to whatever the source Chunk supplied.
type VectorDocument struct {
	ID            string
	Vector        []float32
	Content       string
	RelativePath  string
	FileExtension string
	StartLine     int
	EndLine       int
	Language      string
	Metadata      map[string]any
}

// IDStyle selects the chunk identity convention a VectorStore expects.
type IDStyle string

const (
	// IDStyleOpaque is "chunk_" + the first 16 hex chars of a sha256 digest.
	IDStyleOpaque IDStyle = "opaque"
	// IDStyleUUID is a deterministic UUID string made from the md5 digest's
	// bytes with the version-4 and variant bits set.
	IDStyleUUID IDStyle = "uuid"
)

// CollectionMode distinguishes a plain dense-only collection from one that
// also carries a sparse/lexical leg for hybrid fusion.
type CollectionMode string

const (
	ModePlain  CollectionMode = "plain"
	ModeHybrid CollectionMode = "hybrid"
)

// Collection describes a named store of VectorDocuments for one codebase.
type Collection struct {
	Name      string
	Dimension int
	Mode      CollectionMode
	IDStyle   IDStyle
}

// MerkleNode is one entry of the snapshot DAG. ID is hash(Data); file leaf
// nodes have Data equal to the file's content hash and no Children, the
// root node's Data incorporates every file hash in insertion order.
type MerkleNode struct {
	ID       string
	Data     string
	Parents  []string
	Children []string
}

// MerkleSnapshot is the persisted incremental-sync checkpoint for one
// codebase: a flat relative-path->content-hash map plus a two-level DAG
// (one root node, one leaf node per file) built over it.
type MerkleSnapshot struct {
	CodebaseRoot string
	Files        map[string]string // relative path -> content hash
	Nodes        map[string]MerkleNode
	RootID       string
	UpdatedAt    time.Time
}

// IgnoreRule is a single compiled ignore pattern plus the source it was
// collected from, preserved for diagnostics.
type IgnoreRule struct {
	Pattern string
	Source  string // "builtin", "repo", "global", "operator"
}

// IndexStatus is the terminal outcome recorded for an index/reindex run.
type IndexStatus string

const (
	StatusCompleted    IndexStatus = "completed"
	StatusLimitReached IndexStatus = "limit_reached"
	StatusFailed       IndexStatus = "failed"
)

// IndexStats summarizes one index or reindex-by-change run.
type IndexStats struct {
	IndexedFiles int
	TotalChunks  int
	Status       IndexStatus
}

// SyncDiff is the result of comparing two MerkleSnapshots: the sets of
// relative paths that were added, removed, or modified.
type SyncDiff struct {
	Added    []string
	Removed  []string
	Modified []string
}

// IndexResult wraps IndexStats and the run's terminal error, if any.
// IndexManager does not count skipped files or failed batches:
// SkippedFiles and FailedBatches are always zero in the results it returns.
type IndexResult struct {
	Stats         IndexStats
	SkippedFiles  int
	FailedBatches int
	Err           *TerminalError
}

// SearchResult is one ranked hit returned by IndexManager.Search.
type SearchResult struct {
	Content      string
	RelativePath string
	Language     string
	StartLine    int
	EndLine      int
	Score        float64
}
