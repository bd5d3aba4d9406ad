// Package data provides commands that print merged entities and conflicts.
package data

import (
	"github.com/spf13/cobra"

	"github.com/passkeyradar/radar/cmd/application"
	"github.com/passkeyradar/radar/internal/cmd/output"
	"github.com/passkeyradar/radar/pkg/constants"
)

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "entities <date>",
		Aliases: []string{"merged"},
		GroupID: "data",
		Short:   "Show merged entities for a snapshot",
		Long: `Show the merged entities of a combined snapshot. The date may be a full
timestamp or YYYY-MM-DD; the closest earlier combined file is used when
there is no exact match, and merged output is generated if missing.`,
		Example: `  radar entities 2024-03-01
  radar entities 2024-03-01-12-00-00 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := app.Radar()
			if err != nil {
				return err
			}
			id, err := rd.Resolve(constants.CombinedDir, args[0])
			if err != nil {
				return err
			}
			entities, err := rd.Merged(cmd.Context(), id)
			if err != nil {
				return err
			}
			format := output.Format(app.OutputFormat())
			table := output.EntitiesToTableData(entities, format == output.FormatWide)
			return output.Write(cmd.OutOrStdout(), format, entities, &table)
		},
	}
}

// NewConflictsCommand creates the conflicts command.
func NewConflictsCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "conflicts <date>",
		GroupID: "data",
		Short:   "Show the conflict log of a merge",
		Example: `  radar conflicts 2024-03-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := app.Radar()
			if err != nil {
				return err
			}
			id, err := rd.Resolve(constants.ConflictsDir, args[0])
			if err != nil {
				return err
			}
			conflicts, err := rd.Conflicts(id)
			if err != nil {
				return err
			}
			table := output.ConflictsToTableData(conflicts)
			return output.Write(cmd.OutOrStdout(), output.Format(app.OutputFormat()), conflicts, &table)
		},
	}
}
