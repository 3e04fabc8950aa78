// Command starcue is the main entry point for the starcue keyword reading
// server and its tools.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "starcue: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each call returns a fresh tree so tests
// can execute commands in isolation.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "starcue",
		Short: "Listen for three keywords and turn them into a birthday reading",
		Long: `starcue listens to speech (or typed text) for one Trimester word, one Red
word and one Economic word, then derives a pair of birthday lines with their
zodiac signs from the words' weights.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newReadCmd(),
		newLintCmd(),
		newVocabCmd(),
		newMCPCmd(),
		newHistoryCmd(),
	)
	return root
}

// newLogger returns a text logger on stderr whose level follows lv. Stdout is
// left to command output and the MCP stdio transport.
func newLogger(lv *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}
