// Package watch provides the watch command.
package watch

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/passkeyradar/radar/cmd/application"
	"github.com/passkeyradar/radar/internal/watch"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
)

// NewCommand creates the watch command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: "core",
		Short:   "Combine and merge new snapshots as they land",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := Run(cmd.Context(), app, debounce)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", constants.WatchDebounce, "wait for writes to settle before running")
	return cmd
}

// Run watches the configured data directory until ctx is canceled.
func Run(ctx context.Context, app application.Application, debounce time.Duration) error {
	rd, err := app.Radar()
	if err != nil {
		return err
	}
	w, err := watch.New(rd.Store().Root(), rd,
		watch.WithDebounce(debounce),
		watch.WithLogger(app.Logger()),
	)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx)
}
