package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("askdoc %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		// Version must work even with a broken config.
		return nil
	}

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  Provider: %s\n", cfg.Provider)
	fmt.Printf("  Model: %s\n", cfg.ModelName)
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Vector store: %s\n", cfg.VectorStore)
	fmt.Printf("  Corpus: %s\n", cfg.DocumentPath)
	fmt.Printf("  Top-K: %d\n", cfg.TopK)

	return nil
}
