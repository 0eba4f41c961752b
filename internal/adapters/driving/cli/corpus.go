package cli

import (
	"github.com/spf13/cobra"
)

var corpusSearchLimit int

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the document corpus index",
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runCorpusStats,
}

var corpusSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus directly",
	Long: `Runs the lexical retrieval used by the answer workflow and prints
the matching chunks with their scores, without any model calls.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusSearch,
}

func init() {
	corpusSearchCmd.Flags().IntVarP(&corpusSearchLimit, "limit", "n", 10, "maximum number of results")
	corpusCmd.AddCommand(corpusStatsCmd)
	corpusCmd.AddCommand(corpusSearchCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := ensureIndex(cmd.Context(), cfg); err != nil {
		return err
	}

	stats := searchIndex.Stats()
	cmd.Printf("Documents:  %d\n", stats.Documents)
	cmd.Printf("Chunks:     %d\n", stats.Chunks)
	cmd.Printf("Vocabulary: %d terms\n", stats.Vocabulary)
	return nil
}

func runCorpusSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := ensureIndex(cmd.Context(), cfg); err != nil {
		return err
	}

	hits, err := searchIndex.Retrieve(cmd.Context(), args[0], corpusSearchLimit)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		cmd.Println("No matching chunks.")
		return nil
	}

	for i, hit := range hits {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, hit.ChunkID, hit.Score)
		cmd.Printf("      %s\n", snippet(hit.Text, 120))
		cmd.Println()
	}
	return nil
}

// snippet truncates chunk text for table output.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
