package cache

import (
	"database/sql"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/obs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "geo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, InitSqliteSchema(t.Context(), db))
	return db
}

func TestSqliteGeocodeCacheRoundTrip(t *testing.T) {
	store := NewSqliteGeocodeCache(openTestDB(t), obs.Discard())
	ctx := t.Context()

	err := store.PutMany(ctx, map[string]domain.Coordinates{
		"madrid": {Lon: -3.7038, Lat: 40.4168},
		"parís":  {Lon: 2.3522, Lat: 48.8566},
	})
	require.NoError(t, err)

	got, err := store.GetMany(ctx, []string{"madrid", " madrid ", "lyon", ""})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Coordinates{Lon: -3.7038, Lat: 40.4168}, got["madrid"])
}

func TestSqliteGeocodeCacheOverwrite(t *testing.T) {
	store := NewSqliteGeocodeCache(openTestDB(t), obs.Discard())
	ctx := t.Context()

	require.NoError(t, store.PutMany(ctx, map[string]domain.Coordinates{"lyon": {Lon: 1, Lat: 1}}))
	require.NoError(t, store.PutMany(ctx, map[string]domain.Coordinates{"lyon": {Lon: 4.8357, Lat: 45.764}}))

	got, err := store.GetMany(ctx, []string{"lyon"})
	require.NoError(t, err)
	assert.Equal(t, 4.8357, got["lyon"].Lon)
}

func TestSqliteGeocodeCacheRejectsEmptyKey(t *testing.T) {
	store := NewSqliteGeocodeCache(openTestDB(t), obs.Discard())

	err := store.PutMany(t.Context(), map[string]domain.Coordinates{" ": {Lon: 1, Lat: 1}})
	assert.Error(t, err)
}

func TestNilDB(t *testing.T) {
	_, err := NewSqliteGeocodeCache(nil, nil).GetMany(t.Context(), []string{"x"})
	assert.Error(t, err)

	_, err = NewSQLGeocodeCache(nil, nil).GetMany(t.Context(), []string{"x"})
	assert.Error(t, err)
}
