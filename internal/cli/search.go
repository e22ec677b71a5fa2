package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

var (
	searchTopK      int
	searchThreshold float64
	searchExt       []string
	searchPath      string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed codebase",
	Long: `Search embeds the query and runs a similarity search (or, for a hybrid
collection, a dense+sparse fused search) against the current codebase's
indexed chunks.

Examples:
  # Search for a concept
  contextindex search "retry backoff logic"

  # Limit results and raise the similarity floor (plain collections only)
  contextindex search "jwt validation" --top-k 5 --threshold 0.3

  # Restrict to a single extension
  contextindex search "error handling" --ext .go
`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 10, "Maximum number of results to return")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Minimum similarity score to include a result (ignored for hybrid collections)")
	searchCmd.Flags().StringSliceVar(&searchExt, "ext", nil, "Restrict results to these file extensions (e.g. .go,.py)")
	searchCmd.Flags().StringVar(&searchPath, "path", "", "Restrict results to a single relative file path")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	manager, closeStore, err := buildManager(rootDir)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := indexer.ManagerSearchOptions{
		TopK:      searchTopK,
		Threshold: searchThreshold,
	}
	if searchPath != "" {
		opts.Filter = manager.Store.PathFilter(searchPath)
	} else if len(searchExt) > 0 {
		opts.Filter = manager.Store.ExtensionFilter(searchExt)
	}

	results, err := manager.Search(context.Background(), rootDir, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s:%d-%d (score %.4f)\n", i+1, r.RelativePath, r.StartLine, r.EndLine, r.Score)
		fmt.Println(indentLines(r.Content, "   "))
		fmt.Println()
	}
	return nil
}

func indentLines(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
