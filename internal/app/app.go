// Package app provides application initialization and wiring.
//
// App is the container that holds every long-lived component: the
// Genkit runtime, the database pool, the stores and the services built
// on them. Setup() constructs it, Close() tears it down in reverse.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askcampus/askcampus/internal/ask"
	"github.com/askcampus/askcampus/internal/config"
	"github.com/askcampus/askcampus/internal/material"
	"github.com/askcampus/askcampus/internal/outbox"
	"github.com/askcampus/askcampus/internal/storage"
	"github.com/askcampus/askcampus/internal/vecindex"
)

// App is the core application container.
type App struct {
	Config *config.Config

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	// Domain components
	Store     *storage.Store
	Index     *vecindex.Index
	Materials *material.Service
	Ask       *ask.Service
	Relay     *outbox.Relay

	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	slog.Info("shutting down application")

	if a.dbCleanup != nil {
		a.dbCleanup()
		slog.Info("database pool closed")
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
