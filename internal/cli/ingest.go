package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tariffrag/config"
	"tariffrag/internal/adapter/chunker"
	"tariffrag/internal/adapter/fs"
	"tariffrag/internal/adapter/store"
	"tariffrag/internal/usecase"
)

var ingestClean bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Build the tariff corpus from a document directory",
	Long: `Ingest tariff documents from the given directory (default: the
configured docs_dir). Documents are split into section chunks, captioned
tables are extracted as standalone records, and chunk embeddings are
stored in .tariffrag/corpus.db.

Examples:
  tariffrag ingest ./docs
  tariffrag ingest --clean ./docs   # wipe the corpus first`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestClean, "clean", false, "clear the existing corpus before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()
	log := GetLogger()

	docsDir := cfg.Corpus.DocsDir
	if len(args) > 0 {
		docsDir = args[0]
	}
	docsDir, err := filepath.Abs(docsDir)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(docsDir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", docsDir)
	}

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create .tariffrag directory: %w", err)
	}

	st, err := store.NewCorpusStore(config.CorpusDBPath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open corpus store: %w", err)
	}
	defer st.Close()

	vs, err := store.NewBoltVectorStore(st.DB(), cfg.Embedding.Dimension)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		return err
	}

	ingestUC := usecase.NewIngestUseCase(
		st, vs, embedder,
		fs.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes),
		chunker.NewHeaderChunker(),
		log,
	)

	if ingestClean {
		fmt.Println("Clearing existing corpus...")
		if err := ingestUC.Clean(); err != nil {
			return fmt.Errorf("failed to clear corpus: %w", err)
		}
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}))
		}
		_ = bar.Set(done)
	}

	result, err := ingestUC.Ingest(docsDir, cfg.Embedding.BatchSize, progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	fmt.Printf("Ingested %d documents (%d chunks, %d tables)\n",
		result.DocsIngested, result.ChunksCreated, result.TablesExtracted)
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}

	return nil
}
