package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/clans/internal/clan"
	"github.com/udisondev/clans/internal/config"
	"github.com/udisondev/clans/internal/db"
	"github.com/udisondev/clans/internal/metrics"
	"github.com/udisondev/clans/internal/presence"
	"github.com/udisondev/clans/internal/sqlitestore"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("clansd starting", "log_level", cfg.LogLevel, "store", cfg.Store.Driver)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	clans, err := store.LoadClans(ctx)
	if err != nil {
		return fmt.Errorf("loading clans: %w", err)
	}
	players, err := store.LoadPlayers(ctx)
	if err != nil {
		return fmt.Errorf("loading players: %w", err)
	}

	table := clan.NewTable()
	if err := table.Restore(clans, players); err != nil {
		return fmt.Errorf("restoring clan table: %w", err)
	}
	metrics.Population.WithLabelValues("clans").Set(float64(table.Count()))
	metrics.Population.WithLabelValues("players").Set(float64(table.PlayerCount()))

	// The host's session layer feeds this registry via Connect/Disconnect as
	// players log in and out; until then broadcasts reach nobody.
	online := presence.NewRegistry(cfg.PresenceQueueSize)
	mgr := clan.NewManager(table, store, cfg.Clans,
		clan.WithPresence(online),
		clan.WithPersistLimit(cfg.PersistLimit),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := serveMetrics(gctx, cfg.MetricsAddr); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := mgr.RunSaveLoop(gctx, cfg.SaveInterval); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("clan save loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting inactivity report", "interval", cfg.InactiveCheckInterval, "warn_days", cfg.InactiveWarnDays)
		err := mgr.RunInactivityReport(gctx, cfg.InactiveCheckInterval, cfg.InactiveWarnDays)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("inactivity report: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// backend is a store that can also restore the population at start-up.
type backend interface {
	clan.Store
	clan.Loader
}

// openStore opens the configured store and returns it with its close func.
func openStore(ctx context.Context, cfg config.Server) (backend, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := sqlitestore.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		slog.Info("sqlite store opened", "path", cfg.Store.SQLitePath)
		return s, func() { _ = s.Close() }, nil

	default:
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return db.NewClanRepository(database.Pool()), database.Close, nil
	}
}

// serveMetrics exposes /metrics until ctx is canceled.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
