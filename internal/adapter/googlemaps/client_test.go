package googlemaps

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/wildflower-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey           = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, metrics *observability.Metrics) *Client {
	return &Client{
		key:        testKey,
		country:    "IL",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func writeResponse(t *testing.T, w http.ResponseWriter, resp response) {
	t.Helper()
	w.Header().Set(headerContentType, contentTypeJSON)
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestClient_Geocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "עין גדי", r.URL.Query().Get("address"))
		assert.Equal(t, "country:IL", r.URL.Query().Get("components"))
		assert.Equal(t, testKey, r.URL.Query().Get("key"))

		writeResponse(t, w, response{
			Status: "OK",
			Results: []result{{
				FormattedAddress: "Ein Gedi, Israel",
				Geometry:         geometry{Location: latLng{Lat: 31.4613, Lng: 35.3883}},
			}},
		})
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)
	got, err := c.Geocode(context.Background(), "עין גדי")
	require.NoError(t, err)

	assert.True(t, got.Found)
	assert.Equal(t, 31.4613, got.Lat)
	assert.Equal(t, 35.3883, got.Lon)
	assert.Equal(t, "Ein Gedi, Israel", got.FormattedAddress)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("success")), 0)
}

func TestClient_Geocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(t, w, response{Status: "ZERO_RESULTS", Results: []result{}})
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)
	got, err := c.Geocode(context.Background(), "מקום שלא קיים")
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Equal(t, float64(0), got.Lat)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("empty")), 0)
}

func TestClient_Geocode_RequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(t, w, response{Status: "REQUEST_DENIED", ErrorMessage: "The provided API key is invalid."})
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)
	_, err := c.Geocode(context.Background(), "ירושלים")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("error")), 0)
}

func TestClient_Geocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error_message":"forbidden"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	_, err := c.Geocode(context.Background(), "ירושלים")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Geocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.Geocode(context.Background(), "ירושלים")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testKey, "API key must not leak into errors")
}
