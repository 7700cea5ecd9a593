package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/wildflower-map/internal/adapter/filestore"
	"github.com/couchcryptid/wildflower-map/internal/adapter/gemini"
	"github.com/couchcryptid/wildflower-map/internal/adapter/googlemaps"
	"github.com/couchcryptid/wildflower-map/internal/adapter/httpadapter"
	"github.com/couchcryptid/wildflower-map/internal/adapter/site"
	"github.com/couchcryptid/wildflower-map/internal/adapter/sqlitecache"
	"github.com/couchcryptid/wildflower-map/internal/config"
	"github.com/couchcryptid/wildflower-map/internal/domain"
	"github.com/couchcryptid/wildflower-map/internal/extract"
	"github.com/couchcryptid/wildflower-map/internal/observability"
	"github.com/couchcryptid/wildflower-map/internal/pipeline"
	"github.com/couchcryptid/wildflower-map/internal/render"
)

type options struct {
	url      string
	force    bool
	serve    string
	interval time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "update-site",
		Short: "Build the wildflower sightings map from the report board",
		Long: `Fetches the latest wildflower reports, extracts them with Gemini,
geocodes their locations and renders a static Leaflet map page.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "report board URL, pages are requested with ?page=N (required)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "ignore the freshness window of the persisted reports")
	cmd.Flags().StringVar(&opts.serve, "serve", "", "after updating, serve the map and health endpoints on this address")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "in serve mode, re-run the update this often (0 disables)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func run(ctx context.Context, opts options) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pages, err := site.NewClient(opts.url, cfg.SiteTimeout, metrics, logger)
	if err != nil {
		logger.Error("invalid site url", "error", err)
		return err
	}
	llm := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, logger)
	extractor := extract.New(llm, logger, metrics)
	store := filestore.New(cfg.ReportsPath, logger)

	geocoder, closeGeocoder, err := newGeocoder(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to set up geocoder", "error", err)
		return err
	}
	defer closeGeocoder()

	renderer, err := render.New(cfg.TemplatePath, cfg.OutputPath, logger)
	if err != nil {
		logger.Error("failed to load map template", "error", err)
		return err
	}

	fetcher := pipeline.NewFetcher(pages, extractor, store, cfg.FreshnessWindow, cfg.MaxPages, logger, metrics)
	updater := pipeline.NewUpdater(fetcher, geocoder, renderer, opts.force, logger, metrics)

	err = updater.UpdateSite(ctx)
	writeMetrics(cfg, logger)
	if err != nil {
		logger.Error("site update failed", "error", err)
		if opts.serve == "" {
			return err
		}
	}

	if opts.serve == "" {
		logger.Info("site updated", "output", cfg.OutputPath)
		return nil
	}
	return serve(ctx, cfg, opts, updater, logger)
}

// newGeocoder builds the lookup chain: memory LRU, then the sqlite cache
// when configured, then the Google API.
func newGeocoder(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, func(), error) {
	var geocoder domain.Geocoder = googlemaps.NewClient(cfg.MapsAPIKey, cfg.MapsCountry, cfg.MapsTimeout, metrics, logger)
	closeFn := func() {}

	if cfg.GeocodeCachePath != "" {
		cache, err := sqlitecache.Open(ctx, cfg.GeocodeCachePath, geocoder, metrics, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open geocode cache: %w", err)
		}
		geocoder = cache
		closeFn = func() {
			if err := cache.Close(); err != nil {
				logger.Error("geocode cache close error", "error", err)
			}
		}
		logger.Info("persistent geocode cache enabled", "path", cfg.GeocodeCachePath)
	}

	cached, err := googlemaps.NewCachedGeocoder(geocoder, cfg.MapsCacheSize, metrics)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	logger.Info("google geocoding enabled", "country", cfg.MapsCountry, "cache_size", cfg.MapsCacheSize, "timeout", cfg.MapsTimeout)
	return cached, closeFn, nil
}

func writeMetrics(cfg *config.Config, logger *slog.Logger) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Error("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
	}
}

func serve(ctx context.Context, cfg *config.Config, opts options, updater *pipeline.Updater, logger *slog.Logger) error {
	srv := httpadapter.NewServer(opts.serve, cfg.OutputPath, updater, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	loopDone := startUpdateLoop(ctx, updater, opts.interval)

	<-ctx.Done()
	logger.Info("shutting down")
	// The geocoder is closed after serve returns; let an in-flight update finish first.
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// startUpdateLoop runs updater every interval in the background. The returned
// channel is closed once the loop has stopped, immediately when interval is
// not positive.
func startUpdateLoop(ctx context.Context, updater *pipeline.Updater, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		updater.Run(ctx, interval)
	}()
	return done
}
