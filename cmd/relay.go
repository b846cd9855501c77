package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/askcampus/askcampus/internal/app"
)

// runRelay runs the outbox relay until SIGINT or SIGTERM.
func runRelay(ctx context.Context, a *app.App) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Outbox relay running (interval %s); Ctrl+C to stop\n", a.Config.RelayInterval())
	return a.Relay.Run(ctx)
}
