// Package datasource provides the data collaborators behind a one-pager:
// the company catalog, news feeds and the pre-computed report records.
// Concrete sources include a YAML fixture store, a SQLite catalog, RSS
// feeds and the Alpaca news API. The Aggregator assembles a full record
// set for one symbol from whichever sources are configured.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/pkg/models"
)

// Catalog resolves search queries and symbols to companies.
type Catalog interface {
	search.CatalogProvider

	// Company returns the catalog entry for symbol or ErrSymbolNotFound.
	Company(ctx context.Context, symbol string) (models.Company, error)

	// All returns every company in catalog order.
	All(ctx context.Context) ([]models.Company, error)
}

// NewsProvider returns recent news about a company.
type NewsProvider interface {
	Name() string
	CompanyNews(ctx context.Context, company models.Company, limit int) ([]models.NewsItem, error)
}

// EarningsProvider returns the latest earnings call. A nil record with a
// nil error means the source has nothing for the symbol.
type EarningsProvider interface {
	EarningsCall(ctx context.Context, symbol string) (*models.EarningsCall, error)
}

// MetricsProvider returns pre-computed financial metrics.
type MetricsProvider interface {
	Metrics(ctx context.Context, symbol string) (*models.FinancialMetrics, error)
}

// CompetitorProvider returns the competitive landscape.
type CompetitorProvider interface {
	Competitors(ctx context.Context, symbol string) ([]models.CompetitorData, error)
}

// ChartProvider returns intraday chart points.
type ChartProvider interface {
	Chart(ctx context.Context, symbol string) ([]models.ChartPoint, error)
}

// --- Sentinel errors ---

// ErrNotSupported is returned when a source does not support a method.
var ErrNotSupported = fmt.Errorf("operation not supported by this data source")

// ErrSymbolNotFound is returned when a symbol cannot be resolved.
var ErrSymbolNotFound = fmt.Errorf("symbol not found")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; onepager/1.0; +https://github.com/seenimoa/onepager)"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = HTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}
