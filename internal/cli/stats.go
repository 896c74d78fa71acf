package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tariffrag/config"
	"tariffrag/internal/adapter/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	dbPath := config.CorpusDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no corpus found at %s; run 'tariffrag ingest' first", dbPath)
	}

	st, err := store.NewCorpusStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer st.Close()

	vs, err := store.NewBoltVectorStore(st.DB(), cfg.Embedding.Dimension)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}

	stats, err := st.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}
	vectorCount, err := vs.Count()
	if err != nil {
		return fmt.Errorf("failed to count vectors: %w", err)
	}

	fmt.Printf("Corpus: %s\n", dbPath)
	fmt.Printf("  Documents: %d\n", stats.TotalDocs)
	fmt.Printf("  Chunks:    %d\n", stats.TotalChunks)
	fmt.Printf("  Tables:    %d\n", stats.TotalTables)
	fmt.Printf("  Vectors:   %d\n", vectorCount)

	return nil
}
