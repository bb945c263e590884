package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-quote-service/internal/adapters/cache"
	"freight-quote-service/internal/adapters/datex"
	"freight-quote-service/internal/adapters/nager"
	"freight-quote-service/internal/adapters/ors"
	"freight-quote-service/internal/adapters/tollguru"
	"freight-quote-service/internal/api"
	"freight-quote-service/internal/config"
	"freight-quote-service/internal/platform/budget"
	"freight-quote-service/internal/platform/db"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/ports"
	"freight-quote-service/internal/services"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	purgeInterval   = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	tracker, closeBudget, err := newBudget(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBudget()

	store, closeStore, err := newGeocodeStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	caches := services.NewCaches(cfg.Cache.MaxEntries, cfg.TTLs(), nil)
	keywords := services.Keywords(cfg.Keywords)

	geoDeps := services.GeoRouterDeps{
		Store:             store,
		Budget:            tracker,
		Caches:            caches,
		Logger:            logger,
		GeocodeTimeout:    cfg.ORS.GeocodeTimeout,
		DirectionsTimeout: cfg.ORS.DirectionsTimeout,
	}
	tollDeps := services.TollCalculatorDeps{
		Budget:   tracker,
		Caches:   caches,
		Keywords: keywords,
		Logger:   logger,
		Timeout:  cfg.TollGuru.Timeout,
	}
	restrictionDeps := services.RestrictionAnalyzerDeps{
		Budget:         tracker,
		Caches:         caches,
		Keywords:       keywords,
		Logger:         logger,
		HolidayTimeout: cfg.Holidays.Timeout,
		TrafficTimeout: cfg.Datex.Timeout,
	}

	if err := wireProviders(cfg, logger, &geoDeps, &tollDeps, &restrictionDeps); err != nil {
		return err
	}

	orchestrator, err := services.NewQuoteOrchestrator(services.QuoteOrchestratorDeps{
		Geo:          services.NewGeoRouter(geoDeps),
		Tolls:        services.NewTollCalculator(tollDeps),
		Restrictions: services.NewRestrictionAnalyzer(restrictionDeps),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	go purgeCaches(ctx, caches, logger)

	srv := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler: api.NewRouter(api.RouterDeps{
			Orchestrator:   orchestrator,
			Budget:         tracker,
			Caches:         caches,
			Logger:         logger,
			RequestTimeout: cfg.HTTP.RequestTimeout,
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr), slog.Bool("offline", cfg.Offline))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newBudget picks the in-process tracker or the Redis one shared across replicas.
func newBudget(cfg *config.Config, logger *slog.Logger) (ports.Budget, func(), error) {
	if cfg.Budget.Backend != "redis" {
		return budget.NewTracker(cfg.Limits(), budget.WithLogger(logger)), func() {}, nil
	}

	client, err := budget.NewRedisClient(budget.RedisOptions{
		Addr:     cfg.Budget.Redis.Addr,
		Password: cfg.Budget.Redis.Password,
		DB:       cfg.Budget.Redis.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("budget: %w", err)
	}
	tracker := budget.NewRedisTracker(client, cfg.Budget.Redis.Prefix, cfg.Limits(), nil, logger)
	return tracker, func() { closeQuietly(logger, "redis", tracker) }, nil
}

// newGeocodeStore opens the optional persistent geocode cache.
func newGeocodeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.GeocodeStore, func(), error) {
	var (
		conn *sql.DB
		err  error
	)

	switch cfg.GeocodeStore.Driver {
	case "postgres":
		if conn, err = db.Open(ctx, cfg.GeocodeStore.DSN); err != nil {
			return nil, nil, err
		}
		if err := cache.InitPostgresSchema(ctx, conn); err != nil {
			closeQuietly(logger, "postgres", conn)
			return nil, nil, err
		}
		return cache.NewSQLGeocodeCache(conn, logger), func() { closeQuietly(logger, "postgres", conn) }, nil
	case "sqlite":
		if conn, err = db.OpenSqlite(ctx, cfg.GeocodeStore.DSN); err != nil {
			return nil, nil, err
		}
		if err := cache.InitSqliteSchema(ctx, conn); err != nil {
			closeQuietly(logger, "sqlite", conn)
			return nil, nil, err
		}
		return cache.NewSqliteGeocodeCache(conn, logger), func() { closeQuietly(logger, "sqlite", conn) }, nil
	default:
		return nil, func() {}, nil
	}
}

// wireProviders attaches live providers. Anything left unset makes its
// component answer from local estimation only.
func wireProviders(
	cfg *config.Config,
	logger *slog.Logger,
	geo *services.GeoRouterDeps,
	tolls *services.TollCalculatorDeps,
	restrictions *services.RestrictionAnalyzerDeps,
) error {
	if cfg.Offline {
		logger.Warn("offline mode: all providers disabled")
		return nil
	}

	if strings.TrimSpace(cfg.ORS.APIKey) != "" {
		client, err := ors.NewClient(ors.Options{
			APIKey:            cfg.ORS.APIKey,
			BaseURL:           cfg.ORS.BaseURL,
			GeocodeURL:        cfg.ORS.GeocodeURL,
			GeocodeTimeout:    cfg.ORS.GeocodeTimeout,
			DirectionsTimeout: cfg.ORS.DirectionsTimeout,
			Retries:           cfg.ORS.Retries,
			Logger:            logger,
		})
		if err != nil {
			return fmt.Errorf("ors: %w", err)
		}
		geo.Geocoder = client
		geo.Router = client
	} else {
		logger.Warn("ORS api key not set, routes will be estimated")
	}

	if strings.TrimSpace(cfg.TollGuru.APIKey) != "" {
		client, err := tollguru.NewClient(tollguru.Options{
			APIKey:  cfg.TollGuru.APIKey,
			BaseURL: cfg.TollGuru.BaseURL,
			Timeout: cfg.TollGuru.Timeout,
			Retries: cfg.TollGuru.Retries,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("tollguru: %w", err)
		}
		tolls.Provider = client
	} else {
		logger.Warn("TollGuru api key not set, tolls will be estimated")
	}

	if cfg.Holidays.Enabled {
		restrictions.Holidays = nager.NewClient(cfg.Holidays.BaseURL, cfg.Holidays.Timeout, logger)
	}
	if cfg.Datex.Enabled {
		restrictions.Traffic = datex.NewFeed(cfg.Datex.URL, cfg.Datex.Country, cfg.Datex.Timeout, logger)
	}
	return nil
}

func purgeCaches(ctx context.Context, caches *services.Caches, logger *slog.Logger) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := caches.Purge(); n > 0 {
				logger.Debug("purged expired cache entries", slog.Int("count", n))
			}
		}
	}
}

func closeQuietly(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("close failed", slog.String("resource", name), slog.Any("err", err))
	}
}
