// Package dblp talks to the public DBLP API for person records: live
// publication counts for verification and .bib exports for fetching.
package dblp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public DBLP site.
	BaseURL = "https://dblp.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is 1 request per second. DBLP throttles aggressively and
	// asks bulk users to stay polite.
	RateLimit = 1.0

	// MaxRetries is how many times a 429 response is retried before the
	// request fails with ErrRateLimited.
	MaxRetries = 3

	userAgent = "pubgraph/1.0 (faculty publication tracker)"
)

// Client is a rate-limited HTTP client for DBLP person records.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRateLimit overrides the default requests-per-second limit.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a new DBLP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches a person-record path, retrying 429s with the server's
// Retry-After delay when given.
func (c *Client) get(ctx context.Context, path, pid string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt >= MaxRetries {
				return nil, fmt.Errorf("%w: pid %s", ErrRateLimited, pid)
			}
			if err := sleep(ctx, retryDelay(resp, attempt)); err != nil {
				return nil, err
			}
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: pid %s", ErrNotFound, pid)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &APIError{StatusCode: resp.StatusCode, PID: pid, Message: http.StatusText(resp.StatusCode)}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
		}
		return body, nil
	}
}

func retryDelay(resp *http.Response, attempt int) time.Duration {
	if after := resp.Header.Get("Retry-After"); after != "" {
		if secs, err := strconv.Atoi(after); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	// Exponential backoff: 1s, 2s, 4s.
	return time.Second << attempt
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PublicationCount returns the number of publication records DBLP lists
// for the person with the given PID, by counting the <r> elements of the
// person's XML record.
func (c *Client) PublicationCount(ctx context.Context, pid string) (int, error) {
	body, err := c.get(ctx, "/pid/"+pid+".xml", pid)
	if err != nil {
		return 0, err
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	sawPerson := false
	count := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: parsing person XML for %s: %v", ErrInvalidResponse, pid, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "dblpperson":
			sawPerson = true
		case "r":
			count++
		}
	}
	if !sawPerson {
		return 0, fmt.Errorf("%w: no person record for %s", ErrInvalidResponse, pid)
	}
	return count, nil
}

// FetchBib downloads the person's publication list in BibTeX format.
func (c *Client) FetchBib(ctx context.Context, pid string) ([]byte, error) {
	return c.get(ctx, "/pid/"+pid+".bib", pid)
}
