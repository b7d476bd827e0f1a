package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/database"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/schema"
	"github.com/JonMunkholm/datatable/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"dataset_dir", cfg.Table.DatasetDir,
		"database", cfg.Database.Enabled(),
		"session_ttl", cfg.Session.TTL.String(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// The database is optional: it backs snapshots and server-side datasets.
	var (
		store   core.SnapshotStore
		sources schema.SourceFunc
	)
	if cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}

		snapshots := database.NewSnapshotStore(pool, cfg.Database.SnapshotTable)
		if err := snapshots.EnsureTable(ctx); err != nil {
			slog.Error("failed to prepare snapshot table", "error", err)
			os.Exit(1)
		}
		store = snapshots

		sources = func(src schema.Source, _ []core.ColumnDef) (core.RowSource, error) {
			return database.NewRowSource(pool, src.Table, src.Columns), nil
		}
	} else {
		slog.Info("no database configured, table state is kept in memory")
	}

	n, err := schema.LoadDir(cfg.Table.DatasetDir, cfg.Table.DatasetGlob, sources)
	if err != nil {
		slog.Error("failed to load datasets", "dir", cfg.Table.DatasetDir, "error", err)
		os.Exit(1)
	}
	slog.Info("datasets registered",
		"count", n,
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("dataset group", "group", group, "datasets", len(core.ByGroup(group)))
	}

	service := core.NewService(store, core.ServiceConfig{
		Defaults:    tableDefaults(cfg.Table),
		SessionTTL:  cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxOpen,

		MaxConcurrentFetches: cfg.Database.FetchConcurrency,
		FetchWait:            cfg.Database.FetchWait,
	})

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...", "open_sessions", service.SessionCount())
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := service.WaitForFetches(shutdownCtx); err != nil {
			slog.Warn("fetches still running at shutdown", "active", service.FetchStatus().Active)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// tableDefaults turns the table settings into the options every dataset
// starts from.
func tableDefaults(c config.TableConfig) core.Options {
	opts := core.Options{
		RowsPerPage:        c.RowsPerPage,
		RowsPerPageOptions: c.RowsPerPageOptions,
		Locale:             c.Locale,
		DownloadOptions: core.DownloadOptions{
			Separator: c.CSVSeparator,
		},
	}
	if kind, ok := core.ParseFilterKind(c.FilterType); ok {
		opts.FilterType = kind
	}
	return opts
}
