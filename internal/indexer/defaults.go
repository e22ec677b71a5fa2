package indexer

// Default tuning knobs, mirrored by internal/config's Config defaults.
const (
	DefaultEmbeddingBatchSize = 100
	DefaultMaxChunkSize       = 2500
	DefaultChunkOverlap       = 300
	DefaultMinChunkSize       = 200
	DefaultChunkLimit         = 450_000
	DefaultHybridMode         = true
)

// DefaultIgnorePatterns are the built-in ignore rules applied before any
// repo-local, user-global, or operator-supplied rules are layered on.
var DefaultIgnorePatterns = []string{
	// VCS
	".git/",
	".svn/",
	".hg/",

	// build output / dependency trees
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"target/",
	"out/",
	"bin/",
	"__pycache__/",

	// caches
	".cache/",
	".pytest_cache/",
	".mypy_cache/",
	".ruff_cache/",

	// IDE / editor
	".idea/",
	".vscode/",
	"*.swp",

	// logs / temp
	"*.log",
	"*.tmp",

	// env / secrets
	".env",
	".env.*",

	// minified / bundled assets
	"*.min.js",
	"*.bundle.js",
}

// DefaultGlobalIgnoreRelPath is where the user-global ignore file lives,
// relative to the user's home directory.
const DefaultGlobalIgnoreRelPath = ".context/.contextignore"

// MerkleSnapshotDirRelPath is where persisted Merkle snapshots live,
// relative to the user's home directory.
const MerkleSnapshotDirRelPath = ".context/merkle"
