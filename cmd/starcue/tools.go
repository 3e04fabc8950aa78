package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/MrWong99/starcue/internal/keyword"
	"github.com/MrWong99/starcue/internal/mcp/readingtool"
)

func newLintCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Audit the keyword alias tables",
		Long: `lint reports aliases claimed by more than one category, stop-words that
shadow an alias, aliases without a weighted canonical word, and aliases that
neither sound nor look like their canonical word. Only the last kind is
advisory; use --strict to fail on it too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			findings := keyword.Lint()
			failed := 0
			for _, f := range findings {
				fmt.Fprintln(cmd.OutOrStdout(), f.String())
				if f.Blocking() || strict {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d lint finding(s)", failed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok (%d advisory)\n", len(findings))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat advisory findings as failures")
	return cmd
}

func newVocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Print the keyword categories, words and weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tWORD\tWEIGHT")
			for _, c := range readingtool.Vocabulary().Categories {
				for _, w := range c.Words {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Category, w.Word, w.Weight)
				}
			}
			return tw.Flush()
		},
	}
}

func newMCPCmd() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the reading tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lv := new(slog.LevelVar)
			if err := lv.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			slog.SetDefault(newLogger(lv))

			srv := readingtool.NewServer(version)
			slog.Info("mcp server on stdio", "version", version)
			return srv.Run(cmd.Context(), &mcpsdk.StdioTransport{})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "stderr log level (debug, info, warn, error)")
	return cmd
}
