package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/passkeyradar/radar/cmd/radar/cmd/combine"
	"github.com/passkeyradar/radar/cmd/radar/cmd/data"
	"github.com/passkeyradar/radar/cmd/radar/cmd/merge"
	"github.com/passkeyradar/radar/cmd/radar/cmd/serve"
	"github.com/passkeyradar/radar/cmd/radar/cmd/watch"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		combine.NewCommand(a),
		merge.NewCommand(a),
		serve.NewCommand(a),
		watch.NewCommand(a),
		data.NewEntitiesCommand(a),
		data.NewConflictsCommand(a),
		a.newVersionCommand(),
	)
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("radar %s\n", a.version)
			cmd.Printf("  commit:   %s\n", a.commit)
			cmd.Printf("  built:    %s\n", a.date)
			cmd.Printf("  built by: %s\n", a.builtBy)
			cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
