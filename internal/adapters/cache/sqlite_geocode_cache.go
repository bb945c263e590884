package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/obs"
	"log/slog"
	"strings"
)

// SQLite backed store mapping place keys to coordinates, for single-node runs.
// Keys are expected to be normalized by the caller.
type SqliteGeocodeCache struct {
	DB     *sql.DB
	Logger *slog.Logger
}

func NewSqliteGeocodeCache(db *sql.DB, logger *slog.Logger) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db, Logger: logger}
}

// Fetch stored coordinates for the given place keys.
func (s *SqliteGeocodeCache) GetMany(
	ctx context.Context,
	places []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, s.Logger, "geocode.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(places)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	ph := make([]string, len(uniq))
	args := make([]any, len(uniq))
	for i, p := range uniq {
		ph[i] = "?"
		args[i] = p
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
        place,
        lon,
        lat
    FROM geocode_cache
    WHERE place IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	return scanCoordinates(rows, len(uniq))
}

// Store place -> coordinate mappings.
func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (
        place,
        lon,
        lat,
        updated_at
    )
    VALUES (?, ?, ?, CURRENT_TIMESTAMP);
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for place, c := range results {
		if strings.TrimSpace(place) == "" {
			return fmt.Errorf("insert geocode cache: empty place key")
		}

		if _, err := stmt.ExecContext(ctx, place, c.Lon, c.Lat); err != nil {
			return fmt.Errorf("insert geocode cache place=%q: %w", place, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}

// InitSqliteSchema creates the geocode table when missing.
func InitSqliteSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        place TEXT PRIMARY KEY,
        lon REAL NOT NULL,
        lat REAL NOT NULL,
        updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
	`)
	if err != nil {
		return fmt.Errorf("init schema: create geocode_cache: %w", err)
	}
	return nil
}
