package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// MaxPagesLimit is the hard bound on report pages fetched per cycle.
const MaxPagesLimit = 9

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	// Credentials. Both are required before any network activity.
	GeminiAPIKey string
	MapsAPIKey   string

	// LLM extraction.
	GeminiModel   string
	GeminiTimeout time.Duration

	// Report board.
	SiteTimeout time.Duration
	MaxPages    int

	// Google geocoding.
	MapsTimeout      time.Duration
	MapsCountry      string
	MapsCacheSize    int
	GeocodeCachePath string

	// Files.
	ReportsPath  string
	OutputPath   string
	TemplatePath string

	FreshnessWindow time.Duration

	LogLevel        string
	LogFormat       string
	MetricsTextfile string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	geminiTimeout, err := parseDuration("GEMINI_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	siteTimeout, err := parseDuration("SITE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	mapsTimeout, err := parseDuration("MAPS_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	freshness, err := parseDuration("FRESHNESS_WINDOW", "1h")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	maxPages, err := parsePositiveInt("MAX_PAGES", MaxPagesLimit)
	if err != nil {
		return nil, err
	}
	if maxPages > MaxPagesLimit {
		return nil, fmt.Errorf("invalid MAX_PAGES: must be at most %d", MaxPagesLimit)
	}
	cacheSize, err := parsePositiveInt("MAPS_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		MapsAPIKey:       strings.TrimSpace(os.Getenv("MAPS_API_KEY")),
		GeminiModel:      sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTimeout:    geminiTimeout,
		SiteTimeout:      siteTimeout,
		MaxPages:         maxPages,
		MapsTimeout:      mapsTimeout,
		MapsCountry:      strings.ToUpper(sharedcfg.EnvOrDefault("MAPS_COUNTRY", "IL")),
		MapsCacheSize:    cacheSize,
		GeocodeCachePath: sharedcfg.EnvOrDefault("GEOCODE_CACHE_PATH", "geocode_cache.db"),
		ReportsPath:      sharedcfg.EnvOrDefault("REPORTS_PATH", "reports.json"),
		OutputPath:       sharedcfg.EnvOrDefault("OUTPUT_PATH", "static/output_map.html"),
		TemplatePath:     sharedcfg.EnvOrDefault("TEMPLATE_PATH", "templates/map.html"),
		FreshnessWindow:  freshness,
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsTextfile:  os.Getenv("METRICS_TEXTFILE"),
		ShutdownTimeout:  shutdownTimeout,
	}

	// An explicitly empty GEOCODE_CACHE_PATH disables the persistent cache.
	if v, ok := os.LookupEnv("GEOCODE_CACHE_PATH"); ok && strings.TrimSpace(v) == "" {
		cfg.GeocodeCachePath = ""
	}

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if cfg.MapsAPIKey == "" {
		return nil, errors.New("MAPS_API_KEY is required")
	}
	if len(cfg.MapsCountry) != 2 {
		return nil, errors.New("MAPS_COUNTRY must be an ISO 3166-1 alpha-2 code")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
