package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tariffrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tariffrag",
	Short: "Answer questions about port tariff documents",
	Long: `tariffrag indexes port tariff documents and answers natural-language
questions about them, resolving references like "Table 2" or "Schedule B"
to the full table so rate figures are never clipped mid-row.

Example usage:
  tariffrag ingest ./docs                     # Build the corpus
  tariffrag ask -q "What are anchorage dues?" # Ask a single question
  tariffrag ask                               # Interactive session
  tariffrag stats                             # Corpus counts`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		config.LoadEnv()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = buildLogger(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	// Keep stdout clean for answers; logs go to stderr.
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tariffrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *zap.Logger {
	return logger
}
