// Package cmd implements the askcampus command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/askcampus/askcampus/internal/app"
	"github.com/askcampus/askcampus/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.0.1"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the askcampus CLI.
// It handles initialization, flag parsing, and command routing.
//
// Following the pattern used by kubectl, hugo, and other standard Go
// CLI tools, all application logic lives in the cmd package, leaving
// main.go as a minimal entry point.
func Execute() error {
	// version and help work even when the configuration is invalid.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			return printVersionInfo()
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("closing application", "error", err)
		}
	}()

	if len(os.Args) < 2 {
		printHelp()
		return nil
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "ingest":
		return runIngest(ctx, a, args)
	case "update":
		return runUpdate(ctx, a, args)
	case "remove":
		return runRemove(ctx, a, args)
	case "materials":
		return runMaterials(ctx, a, args)
	case "classes":
		return runClasses(ctx, a, args)
	case "ask":
		return runAsk(ctx, a, args)
	case "relay":
		return runRelay(ctx, a)
	case "serve":
		return runServe(ctx, a, args)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

// initLogger initializes the structured logger.
// DEBUG set (any value) enables debug level; logs go to stderr so
// stdout stays clean for command output.
func initLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if os.Getenv("DEBUG") != "" {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func printVersionInfo() error {
	fmt.Printf("askcampus v%s\n", AppVersion)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
	return nil
}

func printHelp() {
	fmt.Println("askcampus - course material assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  askcampus ingest -class <id> [-name <name>] <file>   Ingest a document")
	fmt.Println("  askcampus update -id <id> [-name <name>] [<file>]    Rename and/or replace content")
	fmt.Println("  askcampus remove [-hard] <id>                        Delete a material")
	fmt.Println("  askcampus materials -class <id>                      List a class's materials")
	fmt.Println("  askcampus classes [create -name <name>]              List or create classes")
	fmt.Println("  askcampus ask -class <id> [-k <n>] <question...>     Ask a question")
	fmt.Println("  askcampus relay                                      Run the outbox relay")
	fmt.Println("  askcampus serve [-addr <host:port>] [-no-relay]      Run the HTTP API server")
	fmt.Println("  askcampus version                                    Show version information")
	fmt.Println("  askcampus help                                       Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required for the gemini provider")
	fmt.Println("  DATABASE_URL       Optional: overrides postgres_* settings")
	fmt.Println("  DEBUG              Optional: enable debug logging")
}
