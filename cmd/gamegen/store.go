package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gamegen/core"
	"gamegen/scorestore"
	"gamegen/storage"
)

func newStoreCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the leaderboard store",
	}
	cmd.AddCommand(newStoreCheckCmd(flags), newStoreLeaderboardCmd(flags))
	return cmd
}

func openStore(ctx context.Context, flags *globalFlags) (*storage.Storage, error) {
	cfg, logger, err := flags.load()
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	if !st.Enabled() {
		return nil, fmt.Errorf("%w: set KV_REST_API_URL/KV_REST_API_TOKEN or REDIS_URL", core.ErrConfigurationMissing)
	}
	return st, nil
}

func newStoreCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Write and read back a probe value",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			st, err := openStore(ctx, flags)
			if err != nil {
				return err
			}
			defer st.Close()
			out := cmd.OutOrStdout()

			if err := st.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "adapter: %s\nping: ok\n", st.Name())

			key := "gamegen:probe"
			want := strconv.FormatInt(time.Now().UnixNano(), 10)
			if err := st.Backend().SetString(ctx, key, want, time.Minute); err != nil {
				return fmt.Errorf("write probe: %w", err)
			}
			got, err := st.Backend().GetString(ctx, key)
			if err != nil {
				return fmt.Errorf("read probe: %w", err)
			}
			if got != want {
				return fmt.Errorf("probe mismatch: wrote %q, read %q", want, got)
			}
			fmt.Fprintln(out, "write/read: ok")
			return nil
		},
	}
}

func newStoreLeaderboardCmd(flags *globalFlags) *cobra.Command {
	var (
		seed  []string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard <game-id>",
		Short: "Dump a leaderboard with the raw response shape",
		Long: `Dump a leaderboard with the raw response shape.

--seed name=score adds entries first, which is how a fresh backend is
checked end to end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			st, err := openStore(ctx, flags)
			if err != nil {
				return err
			}
			defer st.Close()

			game, err := core.NormalizeGameID(core.GameID(args[0]))
			if err != nil {
				return err
			}
			key := scorestore.Key(game)
			for _, s := range seed {
				name, score, err := parseSeed(s)
				if err != nil {
					return err
				}
				if err := st.Backend().ZAdd(ctx, key, name, score); err != nil {
					return fmt.Errorf("seed %s: %w", name, err)
				}
			}

			raw, err := st.Backend().ZRevRangeWithScores(ctx, key, 0, int64(limit)-1)
			if err != nil {
				return fmt.Errorf("range %s: %w", key, err)
			}
			entries, shape, err := scorestore.DecodeShape(raw)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "key: %s\nshape: %s\nraw: %#v\n", key, shape, raw)
			if err != nil {
				return err
			}
			for i, e := range entries {
				fmt.Fprintf(out, "%d. %s %g\n", i+1, e.Name, e.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&seed, "seed", nil, "name=score entries to add before reading")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Entries to read")
	return cmd
}

func parseSeed(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, errors.New("seed must look like name=score")
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("seed %q: %w", s, err)
	}
	return name, score, nil
}
