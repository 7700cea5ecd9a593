// Package sqlitecache persists geocoding hits across runs in a SQLite file so
// the same board locations are not re-geocoded on every update.
package sqlitecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/wildflower-map/internal/domain"
	"github.com/couchcryptid/wildflower-map/internal/observability"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS geocodes (
	query             TEXT PRIMARY KEY,
	lat               REAL NOT NULL,
	lon               REAL NOT NULL,
	formatted_address TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL
)`

// Geocoder is a domain.Geocoder decorator backed by a SQLite table.
type Geocoder struct {
	db      *sql.DB
	inner   domain.Geocoder
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Open opens (creating if needed) the cache database at path and wraps inner.
func Open(ctx context.Context, path string, inner domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) (*Geocoder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	// One writer at a time; the pipeline is sequential anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create geocode cache schema: %w", err)
	}
	return &Geocoder{db: db, inner: inner, metrics: metrics, logger: logger}, nil
}

// Close releases the database handle.
func (g *Geocoder) Close() error {
	return g.db.Close()
}

func (g *Geocoder) Geocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := strings.Join(strings.Fields(query), " ")

	result, ok, err := g.lookup(ctx, key)
	if err != nil {
		// A broken cache must not stop geocoding.
		g.logger.Warn("geocode cache lookup failed", "location", key, "error", err)
	}
	if ok {
		g.metrics.GeocodeCache.WithLabelValues("sqlite", "hit").Inc()
		return result, nil
	}
	g.metrics.GeocodeCache.WithLabelValues("sqlite", "miss").Inc()

	result, err = g.inner.Geocode(ctx, query)
	if err != nil || !result.Found {
		return result, err
	}
	if err := g.store(ctx, key, result); err != nil {
		g.logger.Warn("geocode cache store failed", "location", key, "error", err)
	}
	return result, nil
}

func (g *Geocoder) lookup(ctx context.Context, key string) (domain.GeocodingResult, bool, error) {
	var r domain.GeocodingResult
	err := g.db.QueryRowContext(ctx,
		`SELECT lat, lon, formatted_address FROM geocodes WHERE query = ?`, key,
	).Scan(&r.Lat, &r.Lon, &r.FormattedAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GeocodingResult{}, false, nil
	}
	if err != nil {
		return domain.GeocodingResult{}, false, err
	}
	r.Found = true
	return r, true, nil
}

func (g *Geocoder) store(ctx context.Context, key string, r domain.GeocodingResult) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO geocodes (query, lat, lon, formatted_address, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET lat = excluded.lat, lon = excluded.lon,
		   formatted_address = excluded.formatted_address, created_at = excluded.created_at`,
		key, r.Lat, r.Lon, r.FormattedAddress, domain.Now().UTC().Format(time.RFC3339),
	)
	return err
}
