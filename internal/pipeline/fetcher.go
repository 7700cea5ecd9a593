// Package pipeline orchestrates a site update: incremental report fetching,
// geocoding and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/wildflower-map/internal/domain"
	"github.com/couchcryptid/wildflower-map/internal/observability"
)

// DefaultMaxPages is the hard bound on pages fetched per cycle.
const DefaultMaxPages = 9

var (
	// ErrNoReports is returned when a fetch cycle ends with no reports at all.
	ErrNoReports = errors.New("error processing website")
	// ErrSiteUnavailable is returned when the first page cannot be fetched.
	ErrSiteUnavailable = errors.New("report site unavailable")
)

// PageError reports an extraction failure on one page. The cycle is aborted
// and the persisted set is left untouched.
type PageError struct {
	Page int
	Kind domain.ExtractionKind
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: extraction %s: %v", e.Page, e.Kind, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// ReportStore reads and replaces the persisted report set.
type ReportStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Replace(ctx context.Context, reports []domain.Report) error
}

// PageSource returns the markup of one 1-indexed report page.
type PageSource interface {
	FetchPage(ctx context.Context, page int) (string, error)
}

// Extractor turns page markup into reports.
type Extractor interface {
	Extract(ctx context.Context, markup string) domain.Extraction
}

// Fetcher keeps the persisted report set current with the report board.
type Fetcher struct {
	source    PageSource
	extractor Extractor
	store     ReportStore
	freshness time.Duration
	maxPages  int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFetcher creates a Fetcher. maxPages is clamped to 1..DefaultMaxPages;
// values below one use DefaultMaxPages.
func NewFetcher(source PageSource, extractor Extractor, store ReportStore, freshness time.Duration, maxPages int, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	if maxPages < 1 || maxPages > DefaultMaxPages {
		maxPages = DefaultMaxPages
	}
	return &Fetcher{
		source:    source,
		extractor: extractor,
		store:     store,
		freshness: freshness,
		maxPages:  maxPages,
		logger:    logger,
		metrics:   metrics,
	}
}

// FetchLatest returns the current report set, refreshing it from the site
// unless the persisted set is younger than the freshness window and force is
// false. A positive limit truncates the returned slice only.
func (f *Fetcher) FetchLatest(ctx context.Context, limit int, force bool) ([]domain.Report, error) {
	snap, err := f.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted reports: %w", err)
	}

	switch {
	case !snap.Exists:
		f.metrics.SnapshotCache.WithLabelValues("missing").Inc()
		f.logger.Info("no persisted reports, processing website")
	case force:
		f.metrics.SnapshotCache.WithLabelValues("forced").Inc()
		f.logger.Info("refresh forced, processing website")
	case snap.FreshWithin(f.freshness):
		f.metrics.SnapshotCache.WithLabelValues("fresh").Inc()
		f.logger.Info("persisted reports are recent, skipping website",
			"reports", len(snap.Reports),
			"updated_at", snap.UpdatedAt,
		)
		return truncate(snap.Reports, limit), nil
	default:
		f.metrics.SnapshotCache.WithLabelValues("stale").Inc()
		f.logger.Info("persisted reports are stale, processing website", "updated_at", snap.UpdatedAt)
	}

	reports, err := f.refresh(ctx, snap.Reports)
	if err != nil {
		return nil, err
	}

	if err := f.store.Replace(ctx, reports); err != nil {
		return nil, fmt.Errorf("persist reports: %w", err)
	}
	f.metrics.ReportsPersisted.Set(float64(len(reports)))
	f.logger.Info("persisted reports", "reports", len(reports))

	return truncate(reports, limit), nil
}

// refresh merges new pages into the persisted reports. Reports on the latest
// persisted date are dropped first, since the site may have added reports for
// that day since the last run.
func (f *Fetcher) refresh(ctx context.Context, persisted []domain.Report) ([]domain.Report, error) {
	cutoff, hasCutoff := domain.LatestDate(persisted)
	if hasCutoff {
		persisted = domain.WithoutDate(persisted, cutoff)
		f.logger.Info("latest persisted date", "cutoff", cutoff.String(), "kept", len(persisted))
	}
	set := domain.NewReportSet(persisted)

	for page := 1; page <= f.maxPages; page++ {
		markup, err := f.source.FetchPage(ctx, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if page == 1 {
				return nil, fmt.Errorf("%w: %w", ErrSiteUnavailable, err)
			}
			f.logger.Warn("page fetch failed, ending pagination", "page", page, "error", err)
			break
		}

		x := f.extractor.Extract(ctx, markup)
		if x.Kind == domain.KindFailure || x.Kind == domain.KindRawText {
			return nil, &PageError{Page: page, Kind: x.Kind, Err: x.Err}
		}
		if x.Empty() && len(x.Quarantined) > 0 {
			f.logger.Warn("every report on page was quarantined, continuing",
				"page", page,
				"quarantined", len(x.Quarantined),
			)
			continue
		}
		if x.Empty() {
			f.logger.Info("no reports on page, ending pagination", "page", page)
			break
		}

		pageLatest, _ := domain.LatestDate(x.Reports)
		if hasCutoff && pageLatest.Before(cutoff) {
			f.logger.Info("page is older than persisted reports, ending pagination",
				"page", page,
				"page_latest", pageLatest.String(),
				"cutoff", cutoff.String(),
			)
			break
		}

		added := set.Add(x.Reports)
		f.logger.Info("merged page", "page", page, "reports", len(x.Reports), "added", added)
	}

	if set.Len() == 0 {
		return nil, ErrNoReports
	}
	return set.Reports(), nil
}

func truncate(reports []domain.Report, limit int) []domain.Report {
	if limit > 0 && len(reports) > limit {
		return reports[:limit]
	}
	return reports
}
