// Package cmd provides CLI commands for askdoc.
//
// Commands:
//   - serve: HTTP API server (POST /chat, POST /clear, GET /healthz)
//   - ask: one-shot question against the indexed corpus
//   - version: version and configuration summary
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "askdoc - conversational Q&A over a document corpus",
	Long: `askdoc answers questions grounded in a fixed document corpus.

It splits the corpus into overlapping chunks, embeds them into a vector
index, and on every question retrieves the most relevant chunks before
asking the model. Conversations are kept per session so follow-up
questions have context.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the askdoc CLI.
func Execute() error {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level, JSON: os.Getenv("LOG_JSON") != ""}))

	return rootCmd.Execute()
}
