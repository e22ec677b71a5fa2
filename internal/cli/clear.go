package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var clearQuietFlag bool

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the index to force a full reindex",
	Long: `Clear drops the vector collection for the current codebase and deletes
its persisted Merkle snapshot. This forces a complete reindex on the next
'contextindex index' run.

The configuration file (.context/config.yml) is preserved.

Use cases:
  - Changed embedding model or dimensions
  - Corrupted index data
  - Want a fresh start after major refactoring

Examples:
  # Clear the index for the current codebase
  contextindex clear

  # Clear with minimal output
  contextindex clear --quiet
`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearQuietFlag, "quiet", "q", false, "Suppress output messages")
}

func runClear(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	manager, closeStore, err := buildManager(rootDir)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := manager.Clear(context.Background(), rootDir); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	if !clearQuietFlag {
		fmt.Println("✓ Cleared index")
		fmt.Println("Next 'contextindex index' will perform a full reindex")
	}
	return nil
}
