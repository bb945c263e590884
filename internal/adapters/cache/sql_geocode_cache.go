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

// SQLGeocodeCache is a Postgres-backed store mapping normalized place names to
// coordinates. It sits behind the in-memory TTL cache and survives restarts.
type SQLGeocodeCache struct {
	DB     *sql.DB
	Logger *slog.Logger
}

func NewSQLGeocodeCache(db *sql.DB, logger *slog.Logger) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, Logger: logger}
}

// Fetch stored coordinates for the given place keys.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	places []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, s.Logger, "geocode.store.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(places)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	q := `
	SELECT place, lon, lat
    FROM geocode_cache
    WHERE place = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	return scanCoordinates(rows, len(uniq))
}

// Store place -> coordinate mappings.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, s.Logger, "geocode.store.PutMany")(&err)

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
	INSERT INTO geocode_cache (place, lon, lat, updated_at)
    VALUES ($1, $2, $3, now())
	ON CONFLICT (place) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		updated_at = EXCLUDED.updated_at;
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

// InitPostgresSchema creates the geocode table when missing.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        place TEXT PRIMARY KEY,
        lon DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
	`)
	if err != nil {
		return fmt.Errorf("init schema: create geocode_cache: %w", err)
	}
	return nil
}

func uniqueKeys(keys []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}

func scanCoordinates(rows *sql.Rows, hint int) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, hint)
	for rows.Next() {
		var place string
		var lon, lat float64
		if err := rows.Scan(&place, &lon, &lat); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[place] = domain.Coordinates{Lon: lon, Lat: lat}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}
	return out, nil
}
