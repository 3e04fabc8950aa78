package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/MrWong99/starcue/internal/config"
	"github.com/MrWong99/starcue/internal/reading"
	"github.com/MrWong99/starcue/internal/readinglog"
)

// historyStore is the part of the reading log the history command reads.
type historyStore interface {
	Recent(ctx context.Context, limit int) ([]readinglog.Entry, error)
	CountBySign(ctx context.Context) (map[reading.Sign]int, error)
}

func newHistoryCmd() *cobra.Command {
	var (
		configPath string
		limit      int
		bySign     bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored readings from the reading log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.PostgresDSN == "" {
				return errors.New("storage.postgres_dsn is not set, the reading log is disabled")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			store := readinglog.NewPostgresStore(pool)
			if bySign {
				return printSignCounts(ctx, cmd.OutOrStdout(), store)
			}
			return printRecent(ctx, cmd.OutOrStdout(), store, limit)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, fmt.Sprintf("number of readings to list (max %d)", readinglog.MaxRecent))
	cmd.Flags().BoolVar(&bySign, "by-sign", false, "count readings per line A sign instead of listing them")
	return cmd
}

func printRecent(ctx context.Context, w io.Writer, s historyStore, limit int) error {
	entries, err := s.Recent(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSESSION\tWORDS\tA\tB")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s/%s/%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.SessionID,
			e.Reading.Words.Trimester, e.Reading.Words.Red, e.Reading.Words.Economic,
			e.Reading.A.String(), e.Reading.B.String(),
		)
	}
	return tw.Flush()
}

func printSignCounts(ctx context.Context, w io.Writer, s historyStore) error {
	counts, err := s.CountBySign(ctx)
	if err != nil {
		return err
	}
	signs := make([]reading.Sign, 0, len(counts))
	for sign := range counts {
		signs = append(signs, sign)
	}
	// Most frequent first, then alphabetical.
	slices.SortFunc(signs, func(a, b reading.Sign) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SIGN\tREADINGS")
	for _, sign := range signs {
		fmt.Fprintf(tw, "%s\t%d\n", sign, counts[sign])
	}
	return tw.Flush()
}
