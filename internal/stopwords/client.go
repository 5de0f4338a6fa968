package stopwords

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corpix/uarand"
	"github.com/klauspost/compress/gzip"

	"github.com/garyellow/ders-bilgi-bot/internal/config"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
)

// maxArchiveBytes caps the downloaded archive; the NLTK stopwords package is well under 100 KiB.
const maxArchiveBytes = 8 << 20

// Fetcher downloads a remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client is an HTTP Fetcher with retries and a rotating User-Agent.
type Client struct {
	httpClient   *http.Client
	maxRetries   int
	initialDelay time.Duration
	metrics      *metrics.Metrics
}

// NewClient creates a new download client.
func NewClient(timeout time.Duration, maxRetries int, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    4,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		maxRetries:   maxRetries,
		initialDelay: config.FetchRetryInitial,
		metrics:      m,
	}
}

// Fetch performs a GET request with retries and returns the full body.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	var body []byte

	err := RetryWithBackoff(ctx, c.maxRetries, c.initialDelay, func() error {
		b, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordFetch(status, time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "application/zip,application/octet-stream,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("rate limited for %s: status %d", url, resp.StatusCode)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, fmt.Errorf("server error for %s: status %d", url, resp.StatusCode)
		case http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized:
			return nil, &permanentError{err: fmt.Errorf("client error for %s: status %d (not retrying)", url, resp.StatusCode)}
		default:
			return nil, fmt.Errorf("unexpected status for %s: %d", url, resp.StatusCode)
		}
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxArchiveBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(body) > maxArchiveBytes {
		return nil, &permanentError{err: fmt.Errorf("archive at %s exceeds %d bytes", url, maxArchiveBytes)}
	}
	return body, nil
}
