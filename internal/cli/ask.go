package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tariffrag/config"
	"tariffrag/internal/adapter/analyzer"
	"tariffrag/internal/adapter/cache"
	"tariffrag/internal/adapter/store"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
	"tariffrag/internal/usecase"
)

var (
	askQuestion string
	askTopK     int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested tariff documents",
	Long: `Ask a natural-language question about the ingested tariff documents.
Without a question the command starts an interactive session.

Examples:
  tariffrag ask -q "What are the anchorage dues for a 50,000 GT vessel?"
  tariffrag ask "Which schedule covers pilotage?"
  tariffrag ask                # interactive; type 'exit' to quit`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()
	log := GetLogger()

	dbPath := config.CorpusDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return &domain.ConfigurationError{
			Field: "corpus",
			Err:   fmt.Errorf("no corpus found at %s; run 'tariffrag ingest' first", dbPath),
		}
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

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		return err
	}
	llmClient, err := setupLLM(cfg)
	if err != nil {
		return err
	}

	var ctxStore port.ContextStore = store.NewSearchContextStore(
		st, vs, embedder, cfg.Retrieve.MaxTopK, cfg.Retrieve.MinScore, log)
	if cfg.Retrieve.CacheSize > 0 {
		ctxStore = cache.NewCachedContextStore(ctxStore,
			cfg.Retrieve.CacheSize,
			time.Duration(cfg.Retrieve.CacheTTLSeconds)*time.Second)
	}

	topK := cfg.Retrieve.TopK
	if askTopK > 0 {
		topK = askTopK
	}

	pipeline := usecase.NewPipeline(
		usecase.NewAnalyzeUseCase(llmClient, log),
		ctxStore,
		usecase.NewTableLinkUseCase(ctxStore, analyzer.NewTablePattern(), log),
		usecase.NewGenerateUseCase(llmClient, analyzer.NewTokenCounter(),
			cfg.Generate.TokenBudget, cfg.Generate.DebugContextPath, log),
		topK,
		log,
	)

	question := askQuestion
	if question == "" && len(args) > 0 {
		question = strings.Join(args, " ")
	}

	if question != "" {
		return answerOne(pipeline, question)
	}
	return interactiveLoop(pipeline)
}

func answerOne(p *usecase.Pipeline, question string) error {
	result, err := p.Run(question)
	if err != nil {
		return fmt.Errorf("%s stage failed: %w", stageName(err), err)
	}
	printAnswer(result)
	return nil
}

func interactiveLoop(p *usecase.Pipeline) error {
	fmt.Println("Ask about the tariff documents. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		result, err := p.Run(question)
		if err != nil {
			// A failed question does not end the session.
			fmt.Fprintf(os.Stderr, "error (%s): %v\n", stageName(err), err)
			continue
		}
		printAnswer(result)
	}
}

func printAnswer(result usecase.RunResult) {
	fmt.Println(result.Query.FinalAnswer)

	if len(result.Query.TableContents) > 0 {
		refs := make([]string, 0, len(result.Query.TableContents))
		for ref := range result.Query.TableContents {
			refs = append(refs, string(ref))
		}
		sort.Strings(refs)
		fmt.Fprintf(os.Stderr, "\n[resolved tables: %s]\n", strings.Join(refs, ", "))
	}
}

// stageName maps a pipeline error to the stage that produced it.
func stageName(err error) string {
	var (
		analysisErr   *domain.AnalysisError
		retrievalErr  *domain.RetrievalError
		generationErr *domain.GenerationError
		configErr     *domain.ConfigurationError
	)
	switch {
	case errors.As(err, &analysisErr):
		return "analysis"
	case errors.As(err, &retrievalErr):
		return "retrieval"
	case errors.As(err, &generationErr):
		return "generation"
	case errors.As(err, &configErr):
		return "configuration"
	default:
		return "pipeline"
	}
}
