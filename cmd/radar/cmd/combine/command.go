// Package combine provides the combine command.
package combine

import (
	"github.com/spf13/cobra"

	"github.com/passkeyradar/radar/cmd/application"
	"github.com/passkeyradar/radar/internal/cmd/output"
	"github.com/passkeyradar/radar/pkg/combiner"
)

// NewCommand creates the combine command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:     "combine",
		GroupID: "core",
		Short:   "Combine snapshots into one artifact per timestamp",
		Long: `Combine reads every directory and well-known snapshot under the data
directory and, for each snapshot timestamp, writes combined/<timestamp>.json
holding the latest snapshot of every subtype at or before that timestamp.`,
		Example: `  radar combine
  radar combine --start 2024-03-01 --end 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := combiner.ParseDateRange(start, end)
			if err != nil {
				return err
			}
			rd, err := app.Radar()
			if err != nil {
				return err
			}
			results, err := rd.Combine(cmd.Context(), rng)
			if err != nil {
				return err
			}
			app.Logger().Info().Int("targets", len(results)).Msg("Combine finished")
			if len(results) == 0 {
				return nil
			}
			return output.Write(cmd.OutOrStdout(), output.Format(app.OutputFormat()), results, nil)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first snapshot date to combine (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last snapshot date to combine (YYYY-MM-DD, inclusive)")
	return cmd
}
