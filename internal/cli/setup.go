package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvp-joe/contextindex/internal/config"
	"github.com/mvp-joe/contextindex/internal/embedclient"
	"github.com/mvp-joe/contextindex/internal/indexer"
	"github.com/mvp-joe/contextindex/internal/vectorstore"
)

// storeDBRelPath is where the persisted SQLiteStore lives within a
// codebase's .context directory, mirroring the teacher's branch-scoped
// cache.db layout under .cortex/cache.
const storeDBRelPath = ".context/store.db"

// buildManager loads configuration from rootDir, opens the persisted
// vector store, and wires an EmbeddingClient per the configured
// provider into a ready-to-use IndexManager. Grounded on the teacher's
// runIndex setup sequence (load config -> open db -> build embed
// provider -> build indexer).
func buildManager(rootDir string) (*indexer.IndexManager, func() error, error) {
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbPath := filepath.Join(rootDir, storeDBRelPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create .context directory: %w", err)
	}

	store, err := vectorstore.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to build embedding client: %w", err)
	}

	manager := indexer.NewIndexManager(embedder, store, cfg.ToManagerConfig(), nil)
	return manager, store.Close, nil
}

func buildEmbedder(cfg *config.Config) (indexer.EmbeddingClient, error) {
	switch cfg.Embedding.Provider {
	case "", "local":
		return embedclient.NewLocal(embedclient.LocalConfig{
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case "remote":
		if cfg.Embedding.Endpoint == "" {
			return nil, fmt.Errorf("embedding.endpoint is required for the remote provider")
		}
		return embedclient.NewRemote(embedclient.RemoteConfig{
			Endpoint:   cfg.Embedding.Endpoint,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}
