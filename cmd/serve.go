package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/askcampus/askcampus/api"
	"github.com/askcampus/askcampus/internal/app"
)

// runServe runs the HTTP API server until SIGINT or SIGTERM. The outbox
// relay runs alongside it so deletions issued over the API converge
// without a separate relay process.
func runServe(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", api.DefaultAddr, "listen address")
	noRelay := fs.Bool("no-relay", false, "do not run the outbox relay in-process")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(a.DBPool, a.Store, a.Materials, a.Ask, slog.Default())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, *addr)
	})
	if !*noRelay {
		g.Go(func() error {
			return a.Relay.Run(gctx)
		})
	}

	fmt.Printf("API server listening on %s; Ctrl+C to stop\n", *addr)
	return g.Wait()
}
