package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/aaronukgarcia/prixsix/internal/adapters/http/api"
	mcpadapter "github.com/aaronukgarcia/prixsix/internal/adapters/mcp"
	"github.com/aaronukgarcia/prixsix/internal/adapters/repository"
	app "github.com/aaronukgarcia/prixsix/internal/app"
	"github.com/aaronukgarcia/prixsix/internal/config"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithOptions(cfg.LogFormat, os.Stdout); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.Bool("mcp", cfg.MCPEnabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildService opens the record store, imports the optional seed, and
// starts the service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := repository.Open(ctx, cfg.DBDriver, cfg.DBDSN,
		repository.WithMaxOpenConns(cfg.DBMaxOpenConns),
		repository.WithConnMaxLifetime(cfg.DBConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	log.Info(ctx, "record store opened", logger.String("driver", cfg.DBDriver))

	if cfg.SeedPath != "" {
		stats, err := repository.ImportSeedFile(ctx, store, cfg.SeedPath)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("import seed %s: %w", cfg.SeedPath, err)
		}
		log.Info(ctx, "seed imported",
			logger.String("path", cfg.SeedPath),
			logger.Int("weekends", stats.Weekends),
			logger.Int("teams", stats.Teams),
			logger.Int("predictions", stats.Predictions),
			logger.Int("results", stats.Results),
			logger.Int("scores", stats.Scores),
		)
	}

	table, err := cfg.ScoringTable()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithPageSize(cfg.PageSize),
		app.WithMaxPageSize(cfg.MaxPageSize),
		app.WithFetchWorkers(cfg.FetchWorkers),
		app.WithCacheSize(cfg.ScoreCacheSize),
		app.WithScoringTable(table),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}
	return svc, nil
}

// newHandler registers the API routes and, when enabled, the MCP endpoint.
func newHandler(svc *app.Service, cfg *config.Config) http.Handler {
	r := mux.NewRouter()
	api.NewServer(svc, svc).Register(r)
	if cfg.MCPEnabled {
		r.PathPrefix("/mcp").Handler(mcpadapter.Handler(svc, version))
	}
	return r
}

// startSystemMetricsUpdater periodically samples runtime metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the cache gauge as a side effect
			_ = svc.GetStats()
		}
	}
}
