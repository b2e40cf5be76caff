package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/errs"
	"github.com/bassista/proto_cache/internal/logger"
	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxErrorBodyBytes bounds how much of an error response is kept for diagnostics.
const maxErrorBodyBytes = 2048

// Options configures the upstream catalog client.
type Options struct {
	BaseURL           string
	RequestTimeout    time.Duration
	MaxTries          uint
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the rate-limited upstream catalog API. Every request is
// throttled by a local token bucket and retried with exponential backoff on
// transient failures (5xx, 429, connection errors).
type Client struct {
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	maxTries       uint
	requestTimeout time.Duration
}

// pageEnvelope is the upstream list response shape.
type pageEnvelope struct {
	Data  []catalog.RawPrototype `json:"data"`
	Total int                    `json:"total"`
}

// NewClient creates a catalog client. Zero option fields fall back to
// conservative defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("upstream base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	return &Client{
		httpClient:     &http.Client{},
		baseURL:        opts.BaseURL,
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		maxTries:       opts.MaxTries,
		requestTimeout: opts.RequestTimeout,
	}, nil
}

// FetchPage fetches one page of raw records, or a single record when
// params.PrototypeID is set. Errors are returned raw; the caller classifies.
func (c *Client) FetchPage(ctx context.Context, params catalog.FetchParams) ([]catalog.RawPrototype, error) {
	requestID := uuid.NewString()
	endpoint, singleRecord := c.endpointFor(params)

	log := logger.WithComponent("catalog-client").WithField("requestId", requestID)
	log.Debugf("fetching %s", endpoint)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		log.Debugf("attempt %d/%d: GET %s", attempt, c.maxTries, endpoint)
		return c.doRequest(ctx, endpoint, requestID)
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		log.Debugf("fetch failed after %d attempt(s): %v", attempt, err)
		return nil, err
	}

	if singleRecord {
		var record catalog.RawPrototype
		if err := json.Unmarshal(body, &record); err != nil {
			return nil, fmt.Errorf("decode record response: %w", err)
		}
		return []catalog.RawPrototype{record}, nil
	}

	var page pageEnvelope
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page response: %w", err)
	}
	log.Debugf("fetched %d of %d records", len(page.Data), page.Total)
	return page.Data, nil
}

func (c *Client) endpointFor(params catalog.FetchParams) (endpoint string, singleRecord bool) {
	if params.PrototypeID > 0 {
		return fmt.Sprintf("%s/prototypes/%d", c.baseURL, params.PrototypeID), true
	}

	query := url.Values{}
	query.Set("offset", strconv.Itoa(params.Offset))
	query.Set("limit", strconv.Itoa(params.Limit))
	return c.baseURL + "/prototypes?" + query.Encode(), false
}

// doRequest performs one attempt with its own deadline. Transient failures
// come back retryable; anything the upstream answered deliberately is marked
// permanent so backoff stops immediately.
func (c *Client) doRequest(ctx context.Context, endpoint, requestID string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The caller walked away; retrying would only mask the cancellation.
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		apiErr := &errs.APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Method:     http.MethodGet,
			URL:        endpoint,
			Body:       string(snippet),
		}

		// 5xx and 429 are worth retrying; everything else the upstream meant.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
