// Package main is the entry point for the Steward server. It loads
// configuration, establishes infrastructure connections, wires the
// session machinery to the configured credential source, and starts the
// HTTP server.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/app"
	"github.com/keyxmakerx/steward/internal/config"
	"github.com/keyxmakerx/steward/internal/database"
	"github.com/keyxmakerx/steward/internal/plugins/auth"
	"github.com/keyxmakerx/steward/internal/session"
	"github.com/keyxmakerx/steward/internal/token"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting Steward",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("credential_source", cfg.Auth.CredentialSource),
	)

	// --- Connect to Redis (rate limiting) ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Upstream API client ---
	backendURL := cfg.Backend.URL
	if backendURL == "" {
		// Local credential mode may still proxy entity screens; default to
		// the conventional compose hostname when nothing is configured.
		backendURL = "http://backend:9000"
	}
	client := apiclient.New(backendURL, cfg.Backend.Timeout)

	// An upstream 401 means the session is gone server-side; drop it
	// client-side too. The session rides in on the request context, and
	// Invalidate is a no-op for any parallel 401 that lost the race.
	client.OnUnauthorized(func(ctx context.Context) {
		if sc := session.From(ctx); sc != nil {
			sc.Invalidate()
		}
	})

	// --- Credential source ---
	var (
		db       *sql.DB
		creds    session.CredentialSource
		notifier session.LogoutNotifier
	)
	if cfg.UsesLocalCredentials() {
		// Local mode needs MariaDB for the accounts table.
		db, err = database.NewMariaDB(cfg.Database)
		if err != nil {
			slog.Error("failed to connect to MariaDB", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("connected to MariaDB")

		if err := database.RunMigrations(db, "migrations"); err != nil {
			slog.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}

		repo := auth.NewAccountRepository(db)
		if err := auth.EnsureDemoAccounts(context.Background(), repo); err != nil {
			slog.Error("failed to seed demo accounts", slog.Any("error", err))
			os.Exit(1)
		}

		creds = auth.NewLocalSource(repo)
	} else {
		remote := auth.NewRemoteSource(client)
		creds = remote
		notifier = remote
	}

	// --- Session machinery ---
	codec := token.NewCodec(cfg.Auth.Secret)
	sessions := session.NewManager(codec, session.NewCookieStore(), creds, notifier)

	// --- Create Application ---
	application := app.New(cfg, db, rdb, client, sessions)

	// Register all routes (public, guard, plugin, API).
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	slog.SetDefault(slog.New(handler))
}
