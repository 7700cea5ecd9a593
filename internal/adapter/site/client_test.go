package site

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/wildflower-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	c, err := NewClient(baseURL, 5*time.Second, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c, metrics
}

func TestClient_PageURL(t *testing.T) {
	c, _ := newTestClient(t, "https://www.wildflowers.co.il/hebrew/flash.asp")
	assert.Equal(t, "https://www.wildflowers.co.il/hebrew/flash.asp?page=3", c.PageURL(3))

	c, _ = newTestClient(t, "https://example.org/board?lang=he&page=7")
	assert.Equal(t, "https://example.org/board?lang=he&page=1", c.PageURL(1))
}

func TestNewClient_RejectsNonHTTP(t *testing.T) {
	_, err := NewClient("ftp://example.org", time.Second, observability.NewMetricsForTesting(), slog.Default())
	require.Error(t, err)
}

func TestClient_FetchPage(t *testing.T) {
	tests := []struct {
		name        string
		htmlContent string
		statusCode  int
		wantError   bool
		want        string
	}{
		{
			name:        "successful fetch",
			htmlContent: `<html><head><title>t</title><script>var x=1;</script></head><body><div class="report">כלניות ליד בארי</div><style>.a{}</style></body></html>`,
			statusCode:  http.StatusOK,
			want:        `<div class="report">כלניות ליד בארי</div>`,
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusInternalServerError,
			wantError:  true,
		},
		{
			name:        "page without text",
			htmlContent: `<html><body><script>render()</script>  </body></html>`,
			statusCode:  http.StatusOK,
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "wildflower-map"))
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.htmlContent))
			}))
			defer server.Close()

			c, metrics := newTestClient(t, server.URL)
			got, err := c.FetchPage(context.Background(), 2)

			if tt.wantError {
				require.Error(t, err)
				assert.InDelta(t, 1, testutil.ToFloat64(metrics.PageFetchErrors), 0)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.PagesFetched), 0)
		})
	}
}

func TestClean_RemovesNoise(t *testing.T) {
	got, err := Clean(`<body><noscript>enable js</noscript><p>רקפות בכרמל</p><svg><path/></svg><iframe src="x"></iframe></body>`)
	require.NoError(t, err)
	assert.Equal(t, "<p>רקפות בכרמל</p>", got)
}

func TestClient_FetchPage_SendsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><body><p>x</p></body></html>`))
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL)
	_, err := c.FetchPage(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, UserAgent, got)
}
