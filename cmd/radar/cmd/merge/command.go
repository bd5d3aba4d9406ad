// Package merge provides the merge command.
package merge

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/passkeyradar/radar/cmd/application"
	"github.com/passkeyradar/radar/internal/cmd/output"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// NewCommand creates the merge command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:     "merge",
		GroupID: "core",
		Short:   "Merge combined files into entities and conflicts",
		Long: `Merge links the records of each combined file into one entity per
service and writes merged/<timestamp>.json and conflicts/<timestamp>.json.
Without --file, every combined file that has no merged output is merged.`,
		Example: `  radar merge
  radar merge --file 2024-03-01-12-00-00
  radar merge --file 2024-03-01-12-00-00.json --file 2024-03-02-12-00-00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids := make([]snapshot.ID, 0, len(files))
			for _, f := range files {
				id, err := snapshot.ParseID(strings.TrimSuffix(f, constants.SnapshotExt))
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			rd, err := app.Radar()
			if err != nil {
				return err
			}
			results, err := rd.Merge(cmd.Context(), ids...)
			if err != nil {
				return err
			}
			app.Logger().Info().Int("targets", len(results)).Msg("Merge finished")
			if len(results) == 0 {
				return nil
			}
			return output.Write(cmd.OutOrStdout(), output.Format(app.OutputFormat()), results, nil)
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "combined file to merge (repeatable)")
	return cmd
}
