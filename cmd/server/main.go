package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/agenthands/casegraph/internal/config"
	"github.com/agenthands/casegraph/internal/core"
	"github.com/agenthands/casegraph/internal/core/community"
	"github.com/agenthands/casegraph/internal/core/layout"
	"github.com/agenthands/casegraph/internal/core/view"
	"github.com/agenthands/casegraph/internal/driver"
	"github.com/agenthands/casegraph/internal/logging"
	"github.com/agenthands/casegraph/internal/metrics"
	"github.com/agenthands/casegraph/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "casegraph:", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, found, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	if envErr != nil {
		logger.Debug("no .env file found")
	}
	if !found {
		logger.Warn("config file not found, using defaults", "path", cfgPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	detector, err := community.NewDetector(cfg.Community.Algorithm, cfg.Community.MaxIterations)
	if err != nil {
		return err
	}
	engine := core.NewEngine(layout.New(cfg.Layout), detector)

	reg := metrics.NewRegistry()
	views := view.NewManager(source, engine, reg, logger)
	views.OnChange(reg.SetActiveViews)
	views.SetLimit(cfg.Server.MaxCaseViews)

	gin.SetMode(cfg.Server.Mode)
	srv := server.NewServer(server.Options{
		Views:             views,
		Metrics:           reg,
		Logger:            logger,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.SetupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "source", source.Name())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openSource(ctx context.Context, cfg *config.Config, logger *log.Logger) (driver.Source, func(), error) {
	noop := func() {}

	switch cfg.Source.Kind {
	case config.SourceMemgraph:
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			return nil, noop, err
		}
		if err := d.BuildIndices(ctx); err != nil {
			logger.Warn("index setup failed", "err", err)
		}
		return driver.NewMemgraphSource(d), func() { _ = d.Close(context.Background()) }, nil

	case config.SourceSQLite:
		store, err := driver.NewSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.SourcePostgres:
		store, err := driver.NewPGStore(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.SourceRemote:
		return driver.NewRemoteSource(cfg.Remote.BaseURL, cfg.RemoteTimeout(), cfg.Remote.Token), noop, nil

	default:
		if cfg.Source.SeedFile == "" {
			return driver.NewMemorySource(), noop, nil
		}
		src, err := driver.LoadMemorySource(cfg.Source.SeedFile)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	}
}
