// Package site fetches pages of the wildflower report board.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/wildflower-map/internal/observability"
)

// UserAgent identifies the map builder to the report board.
const UserAgent = "wildflower-map/1.0 (+https://github.com/couchcryptid/wildflower-map)"

// Client fetches report pages from a base URL by setting its "page" query
// parameter.
type Client struct {
	http    *resty.Client
	baseURL *url.URL
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a page client for baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("site url must be http or https: %q", baseURL)
	}
	http := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent)
	return &Client{http: http, baseURL: u, metrics: metrics, logger: logger}, nil
}

// PageURL returns the URL of the 1-indexed page.
func (c *Client) PageURL(page int) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage downloads one page and returns its cleaned markup.
func (c *Client) FetchPage(ctx context.Context, page int) (string, error) {
	pageURL := c.PageURL(page)
	res, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		c.metrics.PageFetchErrors.Inc()
		return "", fmt.Errorf("fetch page %d: %w", page, err)
	}
	if res.IsError() {
		c.metrics.PageFetchErrors.Inc()
		return "", fmt.Errorf("fetch page %d: unexpected status code: %d", page, res.StatusCode())
	}
	c.metrics.PagesFetched.Inc()

	raw := res.String()
	markup, err := Clean(raw)
	if err != nil {
		return "", fmt.Errorf("clean page %d: %w", page, err)
	}
	c.logger.Info("got html content", "page", page, "length", len(raw), "cleaned_length", len(markup))
	return markup, nil
}

// noise lists elements that never carry report text.
const noise = "script, style, noscript, link, meta, svg, iframe, head"

// Clean strips non-content elements and returns the inner HTML of <body>.
// A page without visible text yields an empty string.
func Clean(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find(noise).Remove()

	body := doc.Find("body")
	if strings.TrimSpace(body.Text()) == "" {
		return "", nil
	}
	html, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return strings.TrimSpace(html), nil
}
