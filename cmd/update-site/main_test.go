package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildflower-map/internal/domain"
	"github.com/couchcryptid/wildflower-map/internal/observability"
	"github.com/couchcryptid/wildflower-map/internal/pipeline"
)

func TestRootCmd_RequiresURL(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"url"`)
}

func TestRootCmd_MissingCredentialsFailBeforeNetwork(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MAPS_API_KEY", "maps-key")

	cmd := newRootCmd()
	// Port 1 is never listening; reaching the network would surface a
	// different error.
	cmd.SetArgs([]string{"-u", "http://127.0.0.1:1/flash.asp"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	require.Error(t, err)
	assert.EqualError(t, err, "GEMINI_API_KEY is required")
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"url", "force", "serve", "interval"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "u", cmd.Flags().Lookup("url").Shorthand)
}

type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingFetcher) FetchLatest(_ context.Context, _ int, _ bool) ([]domain.Report, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil, pipeline.ErrNoReports
}

type noopGeocoder struct{}

func (noopGeocoder) Geocode(context.Context, string) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, nil
}

type noopRenderer struct{}

func (noopRenderer) Render(domain.MapArtifact) error { return nil }

func TestStartUpdateLoop_WaitsForInFlightUpdate(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	updater := pipeline.NewUpdater(fetcher, noopGeocoder{}, noopRenderer{}, false, logger, observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	done := startUpdateLoop(ctx, updater, 10*time.Millisecond)

	select {
	case <-fetcher.started:
	case <-time.After(2 * time.Second):
		t.Fatal("update never started")
	}
	cancel()

	select {
	case <-done:
		t.Fatal("loop finished while an update was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(fetcher.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after the update finished")
	}
}

func TestStartUpdateLoop_NoInterval(t *testing.T) {
	done := startUpdateLoop(context.Background(), nil, 0)

	select {
	case <-done:
	default:
		t.Fatal("expected closed channel without an interval")
	}
}
