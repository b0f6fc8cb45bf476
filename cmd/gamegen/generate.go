package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gamegen/core"
	"gamegen/games"
	"gamegen/llm"
)

func newModelsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available to the configured API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			client, err := llm.New(cfg.LLM, logger)
			if err != nil {
				return err
			}
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var (
		difficulty string
		timed      bool
		outDir     string
	)
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a game page into a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			client, err := llm.New(cfg.LLM, logger)
			if err != nil {
				return err
			}
			files, err := games.NewFileStore(outDir)
			if err != nil {
				return err
			}
			svc := games.NewService(client, files, games.WithLogger(logger))
			res, err := svc.Generate(cmd.Context(), games.Request{
				Prompt:     args[0],
				Difficulty: core.Difficulty(difficulty),
				Timed:      timed,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "game_id: %s\nfile: %s\n", res.GameID, filepath.Join(outDir, games.FileName(res.GameID)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(core.DifficultyMedium), "easy, medium or hard")
	cmd.Flags().BoolVar(&timed, "timed", true, "Add a countdown timer")
	cmd.Flags().StringVarP(&outDir, "out", "o", "games", "Output directory")
	return cmd
}

func newCleanCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Strip markdown fences from a generated page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			if err := os.WriteFile(output, []byte(games.CleanHTML(string(data))), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "Write here instead of in place")
	return cmd
}
