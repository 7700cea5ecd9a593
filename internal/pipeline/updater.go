package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wildflower-map/internal/domain"
	"github.com/couchcryptid/wildflower-map/internal/observability"
)

// ReportFetcher returns the current report set.
type ReportFetcher interface {
	FetchLatest(ctx context.Context, limit int, force bool) ([]domain.Report, error)
}

// Renderer writes the map page for an artifact.
type Renderer interface {
	Render(artifact domain.MapArtifact) error
}

// Updater runs the fetch, geocode and render steps of a site update.
type Updater struct {
	fetcher  ReportFetcher
	geocoder domain.Geocoder
	renderer Renderer
	force    bool
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// NewUpdater creates an Updater. When force is true every update bypasses
// the freshness window of the persisted reports.
func NewUpdater(fetcher ReportFetcher, geocoder domain.Geocoder, renderer Renderer, force bool, logger *slog.Logger, metrics *observability.Metrics) *Updater {
	return &Updater{
		fetcher:  fetcher,
		geocoder: geocoder,
		renderer: renderer,
		force:    force,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a map page has been rendered.
func (u *Updater) CheckReadiness(_ context.Context) error {
	if !u.ready.Load() {
		return errors.New("map has not been rendered yet")
	}
	return nil
}

// UpdateSite fetches every report, geocodes their locations and renders the
// map page.
func (u *Updater) UpdateSite(ctx context.Context) error {
	start := time.Now()

	reports, err := u.fetcher.FetchLatest(ctx, 0, u.force)
	if err != nil {
		return fmt.Errorf("fetch reports: %w", err)
	}
	u.logger.Info("got reports", "reports", len(reports))

	artifact := domain.BuildMapArtifact(ctx, reports, u.geocoder, u.logger)
	if err := ctx.Err(); err != nil {
		return err
	}
	u.logger.Info("geocoded locations",
		"markers", artifact.Len(),
		"misses", artifact.Misses,
		"errors", artifact.Errors,
	)

	if err := u.renderer.Render(artifact); err != nil {
		return fmt.Errorf("render map: %w", err)
	}

	u.metrics.MarkersRendered.Set(float64(artifact.Len()))
	u.metrics.LastSuccess.Set(float64(domain.Now().Unix()))
	u.metrics.RunDuration.Observe(time.Since(start).Seconds())
	u.ready.Store(true)
	return nil
}

// Run repeats UpdateSite every interval until ctx is cancelled. Failed
// updates are logged and the previous page stays in place.
func (u *Updater) Run(ctx context.Context, interval time.Duration) {
	u.logger.Info("update loop started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			u.logger.Info("update loop stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := u.UpdateSite(ctx); err != nil && ctx.Err() == nil {
				u.logger.Error("site update failed", "error", err)
			}
		}
	}
}
