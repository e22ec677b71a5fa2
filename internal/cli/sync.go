package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/contextindex/internal/config"
	"github.com/mvp-joe/contextindex/internal/fswatch"
)

var syncQuietFlag bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Watch the codebase and incrementally reindex on change",
	Long: `Sync runs an initial incremental index (via ReindexByChange) and then
watches the codebase, debouncing file events and triggering another
incremental reindex whenever a burst of changes settles.

Press Ctrl+C to stop.

Examples:
  contextindex sync
  contextindex sync --quiet
`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncQuietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping sync...")
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

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reindex := func() {
		if !syncQuietFlag {
			log.Println("Change detected, reindexing...")
		}
		result, err := manager.ReindexByChange(ctx, rootDir, newCLIProgress(syncQuietFlag))
		if err != nil {
			log.Printf("reindex failed: %v", err)
			return
		}
		if !syncQuietFlag {
			fmt.Printf("✓ Reindexed: %d files, %d chunks (%s)\n",
				result.Stats.IndexedFiles, result.Stats.TotalChunks, result.Stats.Status)
		}
	}

	reindex()

	watcher, err := fswatch.New(fswatch.Config{
		Root:       rootDir,
		Extensions: cfg.Extensions(),
	})
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.Start(ctx, reindex)

	if !syncQuietFlag {
		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	}
	<-ctx.Done()
	return nil
}
