package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/ragmem/internal/logging"
	cfgPkg "github.com/xhad/ragmem/pkg/config"
)

type rootFlags struct {
	configPath string
	logLevel   string
	provider   string
	model      string
	embedModel string
	baseURL    string
	chunkSize  int
	topK       int
	maxDepth   int
}

func main() {
	_ = godotenv.Load()

	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "ragmem",
		Short:         "In-memory retrieval-augmented question answering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to config file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.provider, "provider", "", "LLM provider (ollama, openai)")
	pf.StringVar(&flags.model, "model", "", "Generation model")
	pf.StringVar(&flags.embedModel, "embed-model", "", "Embedding model")
	pf.StringVar(&flags.baseURL, "base-url", "", "Provider base URL")
	pf.IntVar(&flags.chunkSize, "chunk-size", 0, "Characters per chunk")
	pf.IntVar(&flags.topK, "top-k", 0, "Chunks retrieved per question")
	pf.IntVar(&flags.maxDepth, "max-depth", 1, "Link hops followed from a scraped URL (0 = start page only)")

	rootCmd.AddCommand(newServeCmd(&flags))
	rootCmd.AddCommand(newChatCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies flag overrides and validates
// the result.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*cfgPkg.Config, error) {
	cfg, err := cfgPkg.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if pf.Changed("provider") {
		cfg.LLM.Provider = flags.provider
	}
	if pf.Changed("model") {
		cfg.LLM.Model = flags.model
	}
	if pf.Changed("embed-model") {
		cfg.LLM.EmbedModel = flags.embedModel
	}
	if pf.Changed("base-url") {
		cfg.LLM.BaseURL = flags.baseURL
	}
	if pf.Changed("chunk-size") {
		cfg.Processor.ChunkSize = flags.chunkSize
	}
	if pf.Changed("top-k") {
		cfg.Retrieval.TopK = flags.topK
	}
	if pf.Changed("max-depth") {
		depth := flags.maxDepth
		cfg.Scraper.MaxDepth = &depth
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s", e.Error())
		}
		return nil, fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}

	switch cfg.UI.Color {
	case "never":
		color.NoColor = true
	case "always":
		color.NoColor = false
	}

	return cfg, nil
}

func newLogger(cfg *cfgPkg.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetDefault(logger)
	return logger, nil
}
