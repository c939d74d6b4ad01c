// Package cli implements the fibload command-line interface using Cobra.
package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/utkarsh5026/fibload/internal/config"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd(version string) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "fibload",
		Short: "fibload generates nested worker-pool load",
		Long: `fibload drives two worker pools with a synthetic workload: fibonacci tasks
that each fan out a batch of factorial tasks onto a second pool, alongside
simulated URL retrievals. It reports results, pool statistics and optional
per-task profiles, and can expose Prometheus metrics while it runs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to a TOML config file")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: json or console (overrides config)")

	root.AddCommand(newRunCmd(g), newConfigCmd(g))
	return root
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	if err := newRootCmd(version).Execute(); err != nil {
		_, _ = red.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig layers the config file and environment, then any flag the user set explicitly.
func loadConfig(g *globalFlags, flags *pflag.FlagSet, apply func(*config.Config, *pflag.FlagSet)) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}

	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	if apply != nil {
		apply(&cfg, flags)
	}
	return cfg, cfg.Validate()
}
