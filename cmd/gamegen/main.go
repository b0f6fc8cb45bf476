package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gamegen/config"
	"gamegen/logging"
)

type globalFlags struct {
	configPath string
	adapter    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "gamegen",
		Short: "Operator tools for the game generator",
		Long: `Operator tools for the game generator.

Probe the leaderboard store, inspect raw range responses, list and call
the configured model, and clean up generated pages offline.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (.json, .yaml); env and .env still apply")
	root.PersistentFlags().StringVar(&flags.adapter, "adapter", "", "Override the storage adapter (memory, redis, upstash, file, auto)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Debug logging to stderr")

	root.AddCommand(
		newStoreCmd(flags),
		newModelsCmd(flags),
		newGenerateCmd(flags),
		newCleanCmd(),
	)
	return root
}

func (f *globalFlags) load() (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, nil, err
	}
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFromFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	if f.adapter != "" {
		cfg.Storage.Adapter = f.adapter
		if err := cfg.Storage.Validate(); err != nil {
			return nil, nil, fmt.Errorf("storage config: %w", err)
		}
	}

	logCfg := config.LoggingConfig{Level: "warn", Format: "console", Output: "stderr"}
	if f.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
