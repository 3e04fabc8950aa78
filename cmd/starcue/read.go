package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/starcue/internal/keyword"
	"github.com/MrWong99/starcue/internal/reading"
)

// errIncomplete makes `starcue read` exit non-zero when the text did not
// contain all three categories.
var errIncomplete = errors.New("reading incomplete")

func newReadCmd() *cobra.Command {
	var (
		asJSON    bool
		stopWords []string
	)
	cmd := &cobra.Command{
		Use:   "read <text...>",
		Short: "Compute a reading from text",
		Example: `  starcue read "my health, my love life and my career"
  starcue read --json helth luv money`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := keyword.NewParser(keyword.WithStopWords(stopWords...))
			res := p.IngestUtterance(strings.Join(args, " "))
			return printResult(cmd.OutOrStdout(), res, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reading as JSON")
	cmd.Flags().StringSliceVar(&stopWords, "stop-word", nil, "extra filler word to ignore (repeatable)")
	return cmd
}

func printResult(w io.Writer, res keyword.ParseResult, asJSON bool) error {
	var missing []keyword.Category
	switch res := res.(type) {
	case keyword.Success:
		if asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Reading)
		}
		printReading(w, res.Reading)
		return nil
	case keyword.Partial:
		missing = res.Missing
	default:
		missing = keyword.Categories[:]
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"missing": keyword.Describe(missing)}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, keyword.MissingMessage(missing))
	}
	return errIncomplete
}

func printReading(w io.Writer, r reading.Reading) {
	fmt.Fprintf(w, "Words: %s / %s / %s\n\n", r.Words.Trimester, r.Words.Red, r.Words.Economic)
	for _, l := range []reading.Line{r.A, r.B} {
		fmt.Fprintln(w, l.String())
		fmt.Fprintf(w, "  %s\n", l.Keywords)
		fmt.Fprintf(w, "  PER: %s\n", l.Narrative.Per)
		fmt.Fprintf(w, "  PST: %s\n", l.Narrative.Pst)
		fmt.Fprintf(w, "  PRE: %s\n", l.Narrative.Pre)
		fmt.Fprintf(w, "  FTR: %s\n", l.Narrative.Ftr)
	}
}
