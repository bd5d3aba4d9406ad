// Package serve provides the HTTP API server command.
package serve

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/passkeyradar/radar/cmd/application"
	"github.com/passkeyradar/radar/cmd/radar/cmd/watch"
	"github.com/passkeyradar/radar/internal/server"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		addr        string
		corsOrigins []string
		noCORS      bool
		withWatch   bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server",
		Long: `Start the radar API server.

Endpoints:
  GET  /health
  POST /api/combine              start a combine task
  POST /api/merge                start a merge task
  GET  /api/tasks[?status=]      list tasks
  GET  /api/tasks/{id}           poll a task
  GET  /api/data/combined/{date}
  GET  /api/data/merged/{date}
  GET  /api/data/conflicts/{date}`,
		Example: `  radar serve
  radar serve --addr :9000 --watch
  radar serve --cors-origins https://radar.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.ServerConfig()
			if addr != "" {
				cfg.Addr = addr
			}
			if len(corsOrigins) > 0 {
				cfg.CORSOrigins = corsOrigins
			}
			if noCORS {
				cfg.CORSEnabled = false
			}
			return run(cmd.Context(), app, cfg, withWatch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+constants.DefaultAddr+")")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origins", nil, "allowed CORS origins (comma-separated, default all)")
	cmd.Flags().BoolVar(&noCORS, "no-cors", false, "disable CORS headers")
	cmd.Flags().BoolVar(&withWatch, "watch", false, "also combine and merge new snapshots as they land")
	return cmd
}

func run(ctx context.Context, app application.Application, cfg server.Config, withWatch bool) error {
	logger := app.Logger()
	rd, err := app.Radar()
	if err != nil {
		return err
	}
	srv, err := server.New(rd, cfg, logger)
	if err != nil {
		return errors.WrapResource("create", "server", cfg.Addr, err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Str("data_dir", rd.Store().Root()).
		Bool("cors", cfg.CORSEnabled).
		Dur("cache_ttl", cfg.CacheTTL).
		Bool("watch", withWatch).
		Msg("Starting API server")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if withWatch {
		g.Go(func() error {
			return watch.Run(ctx, app, constants.WatchDebounce)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err == nil {
		logger.Info().Msg("Server stopped")
	}
	return err
}
