package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathway/internal/cli"
	"github.com/aretw0/pathway/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pathway",
	Short: "Pathway plays branching learning modules",
	Long: `Pathway loads learning modules (graphs of video, text and question nodes joined
by routers) and plays them for learners from the terminal, over HTTP or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a pathway.yaml config file")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing module documents (overrides modules.dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides log.level)")
	rootCmd.PersistentFlags().String("backend", "", "Storage backend: memory, redis or sqlite (overrides storage.backend)")
}

// loadConfig reads the config file named by --config, or the defaults, then applies
// flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.Modules.Dir = dir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Storage.Backend = config.Backend(backend)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command, quiet bool) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cli.NewLogger(cfg.Log, quiet), nil
}
