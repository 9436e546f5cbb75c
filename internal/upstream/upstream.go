// Package upstream fetches the external datasets over HTTP.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soltixdb/popstats/internal/config"
)

// Source names
const (
	SourceSeries     = "bls-series"
	SourcePopulation = "datausa-population"
)

// Fetcher retrieves the raw bytes of one dataset
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context) ([]byte, error)

// Fetch calls f(ctx)
func (f FetcherFunc) Fetch(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Source describes one upstream endpoint
type Source struct {
	Name   string
	URL    string
	Header http.Header // Sent with every request
}

// FetchError reports a response whose status was not 200 OK
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d from %s", e.Source, e.StatusCode, e.URL)
}

// HTTPFetcher issues a single GET against a Source. There is no retry: any
// status other than 200 is a failure.
type HTTPFetcher struct {
	src    Source
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for src using client
func NewHTTPFetcher(src Source, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{src: src, client: client}
}

// Source returns the endpoint description
func (f *HTTPFetcher) Source() Source {
	return f.src
}

// Fetch performs the GET and returns the full response body
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: build request: %w", f.src.Name, err)
	}
	for name, values := range f.src.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: http get: %w", f.src.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Source: f.src.Name, URL: f.src.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", f.src.Name, err)
	}
	return body, nil
}

// SeriesSource is the labor-statistics time series endpoint. The host
// rejects requests without an identifying User-Agent.
func SeriesSource(cfg config.UpstreamConfig) Source {
	h := http.Header{}
	h.Set("User-Agent", cfg.UserAgent)
	return Source{Name: SourceSeries, URL: cfg.SeriesURL, Header: h}
}

// PopulationSource is the population API endpoint
func PopulationSource(cfg config.UpstreamConfig) Source {
	h := http.Header{}
	h.Set("Accept", "application/json")
	return Source{Name: SourcePopulation, URL: cfg.PopulationURL, Header: h}
}

// NewClient builds the HTTP client shared by both fetchers
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
