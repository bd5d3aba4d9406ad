package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/passkeyradar/radar/internal/cmd/output"
)

// Execute runs the radar CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// globalFlags are bound by the root command and applied in setupCommand.
type globalFlags struct {
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	format     string
	logLevel   string
	dataDir    string
}

func (a *App) createRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "radar",
		Short:   "Passkey support radar",
		Version: a.version,
		Long: `Radar combines passkey directory snapshots and well-known endpoint
scans into a single list of services with their passkey sign-in and
passkey MFA support, and logs every disagreement between sources.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupCommand(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Pipeline Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default is ./.radar.yaml or $HOME/.radar.yaml)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&flags.format, "output", "o", "", "output format: table, wide, json, yaml")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	pf.StringVarP(&flags.dataDir, "data-dir", "d", "", "data directory (default ../data)")

	rootCmd.SetVersionTemplate("radar {{.Version}}\n")
	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand reloads configuration when --config is given, applies the
// global flags and rebuilds the logger.
func (a *App) setupCommand(_ *cobra.Command, flags *globalFlags) error {
	if flags.configFile != "" {
		config, err := LoadConfig(flags.configFile)
		if err != nil {
			return err
		}
		a.config = config
	}
	if flags.format != "" {
		if _, err := output.ParseFormat(flags.format); err != nil {
			return err
		}
	}
	a.config.UpdateFromFlags(flags.verbose, flags.quiet, flags.noColor, flags.format, flags.logLevel, flags.dataDir)

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
