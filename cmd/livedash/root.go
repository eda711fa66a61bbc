package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"livedash/internal/config"
)

// runFlags are the command-line overrides for `livedash run`.
type runFlags struct {
	configPath  string
	addr        string
	logLevel    string
	corsOrigins string
}

func buildRootCmd() *cobra.Command {
	var f runFlags
	root := &cobra.Command{
		Use:           "livedash",
		Short:         "Live dashboard session server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults LIVEDASH_LOG_LEVEL or info)")

	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Start the session and serve its HTTP API",
		Example: "  livedash run --config ~/.config/livedash.yaml --addr :9090",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(f, os.Getenv)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cfg.LogLevel, os.Stderr))
		},
	}
	runCmd.Flags().StringVar(&f.configPath, "config", "", "Path to a .yaml, .json or .toml config file")
	runCmd.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8080 (defaults LIVEDASH_ADDR or :8080)")
	runCmd.Flags().StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated origins allowed by CORS; enables CORS when set")
	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "livedash", version)
		},
	})

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	root.AddCommand(completionCmd)

	return root
}

// resolveConfig layers file, environment and flags over the defaults, in that
// order, and validates the result.
func resolveConfig(f runFlags, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	config.ApplyDefaults(&cfg)
	config.ApplyEnv(&cfg, getenv)
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if origins := splitCSV(f.corsOrigins); len(origins) > 0 {
		cfg.CORS.Enabled = true
		cfg.CORS.AllowedOrigins = origins
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
