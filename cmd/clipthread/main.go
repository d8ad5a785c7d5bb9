package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clipthread/internal/config"
	"clipthread/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clipthread",
		Short:         "Turn short-form video links into researched, cited post drafts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./clipthread.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")

	root.AddCommand(newServeCmd(), newDraftCmd(), newChunksCmd(), newHashPasswordCmd(), newServiceCmd())
	return root
}

// loadConfig reads the config and initialises the logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.New(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		v.Set("log.level", logLevel)
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("Using config file", "path", used)
	}
	watchConfig = func(onChange func(*config.Config)) { config.Watch(v, onChange) }
	return cfg, nil
}

// watchConfig is set by loadConfig to watch the file it read.
var watchConfig = func(func(*config.Config)) {}
