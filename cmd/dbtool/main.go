package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"freight-quote-service/internal/adapters/cache"
	"freight-quote-service/internal/config"
	"freight-quote-service/internal/platform/db"
	"freight-quote-service/internal/platform/obs"
	"log/slog"
	"os"
	"strings"
	"time"
)

// dbtool creates the persistent geocode store schema ahead of deployment.
func main() {
	dsn := flag.String("dsn", "", "database DSN (defaults to geocodeStore.dsn from config)")
	driver := flag.String("driver", "", "postgres or sqlite (defaults to geocodeStore.driver from config)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if err := run(*driver, *dsn, *timeout); err != nil {
		slog.Error("dbtool failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(driver, dsn string, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := obs.NewLogger(os.Stderr, cfg.Log.Level, true)
	if err != nil {
		return err
	}

	if strings.TrimSpace(driver) == "" {
		driver = cfg.GeocodeStore.Driver
	}
	if strings.TrimSpace(dsn) == "" {
		dsn = cfg.GeocodeStore.DSN
	}
	if strings.TrimSpace(dsn) == "" {
		return errors.New("a DSN is required (flag -dsn or QUOTE_GEOCODE_STORE__DSN)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("initializing geocode store schema", slog.String("driver", driver))
	switch driver {
	case "postgres":
		conn, err := db.Open(ctx, dsn)
		if err != nil {
			return err
		}
		defer conn.Close()
		err = cache.InitPostgresSchema(ctx, conn)
		if err != nil {
			return err
		}
	case "sqlite":
		conn, err := db.OpenSqlite(ctx, dsn)
		if err != nil {
			return err
		}
		defer conn.Close()
		err = cache.InitSqliteSchema(ctx, conn)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	logger.Info("schema ready")
	return nil
}
