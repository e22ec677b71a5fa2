package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	quietFlag bool
	forceFlag bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the codebase for semantic search",
	Long: `Index processes your codebase into semantically searchable chunks with
vector embeddings.

The indexer:
  - Walks the codebase honoring .contextignore and the configured extension allow-list
  - Splits each file into overlapping chunks
  - Generates embeddings via the configured embedding provider
  - Stores chunks in a hybrid or dense-only vector collection under .context/

Examples:
  # Index the current directory
  contextindex index

  # Force a full reindex, dropping the existing collection first
  contextindex index --force

  # Index with progress bars disabled
  contextindex index --quiet
`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Drop the existing collection and perform a full reindex")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling indexing...")
		cancel()
	}()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	manager, closeStore, err := buildManager(rootDir)
	if err != nil {
		return err
	}
	defer closeStore()

	if !quietFlag {
		log.Println("Starting indexing...")
	}

	result, err := manager.Index(ctx, rootDir, forceFlag, newCLIProgress(quietFlag))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	if !quietFlag {
		fmt.Printf("  Files indexed: %d\n", result.Stats.IndexedFiles)
		fmt.Printf("  Chunks:        %d\n", result.Stats.TotalChunks)
		fmt.Printf("  Status:        %s\n", result.Stats.Status)
		if result.SkippedFiles > 0 {
			fmt.Printf("  Skipped files: %d\n", result.SkippedFiles)
		}
		if result.FailedBatches > 0 {
			fmt.Printf("  Failed batches: %d\n", result.FailedBatches)
		}
	} else {
		fmt.Printf("Indexing complete: %d chunks\n", result.Stats.TotalChunks)
	}

	return nil
}
