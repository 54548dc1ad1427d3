// Package fred retrieves economic time series observations from the FRED
// HTTP API (https://fred.stlouisfed.org).
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sartorproj/macrocast/timeseries"
)

// ErrDataUnavailable indicates the service could not supply the requested
// series: unknown series id, an API error response, or exhausted retries.
var ErrDataUnavailable = errors.New("series data unavailable")

// ErrRequestRejected indicates the service refused the request itself,
// typically a bad API key (401, 403) or malformed parameters. Retrying or
// asking for a different series will not help.
var ErrRequestRejected = errors.New("request rejected")

const defaultBaseURL = "https://api.stlouisfed.org/fred"

// Client talks to the FRED observations endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRetries sets the number of attempts per request and the linear
// backoff unit between them.
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = attempts
		c.backoff = backoff
	}
}

// WithLogger attaches a logger for request and retry events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client with the given API key. Defaults: 3 attempts
// with one-second linear backoff and a 30 second request timeout.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries < 1 {
		c.maxRetries = 1
	}
	return c
}

// SeriesRequest identifies the observations to fetch. Zero Start/End mean
// the full available range.
type SeriesRequest struct {
	SeriesID string
	Start    time.Time
	End      time.Time
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// FetchObservations retrieves raw observations for a series. Missing
// observations (reported by the API as ".") come back as NaN so the
// caller sees the gaps.
func (c *Client) FetchObservations(ctx context.Context, req SeriesRequest) ([]timeseries.Observation, error) {
	if req.SeriesID == "" {
		return nil, fmt.Errorf("empty series id: %w", ErrDataUnavailable)
	}

	q := url.Values{}
	q.Set("series_id", req.SeriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	if !req.Start.IsZero() {
		q.Set("observation_start", req.Start.Format("2006-01-02"))
	}
	if !req.End.IsZero() {
		q.Set("observation_end", req.End.Format("2006-01-02"))
	}
	endpoint := c.baseURL + "/series/observations?" + q.Encode()

	body, err := c.getWithRetry(ctx, endpoint, req.SeriesID)
	if err != nil {
		return nil, err
	}

	var parsed observationsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("fred %s: decoding response: %w", req.SeriesID, err)
	}
	if parsed.ErrorCode != 0 {
		return nil, fmt.Errorf("fred %s: api error %d: %s: %w",
			req.SeriesID, parsed.ErrorCode, parsed.ErrorMessage, ErrDataUnavailable)
	}
	if len(parsed.Observations) == 0 {
		return nil, fmt.Errorf("fred %s: no observations: %w", req.SeriesID, ErrDataUnavailable)
	}

	obs := make([]timeseries.Observation, 0, len(parsed.Observations))
	for _, o := range parsed.Observations {
		date, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			return nil, fmt.Errorf("fred %s: bad date %q: %w", req.SeriesID, o.Date, err)
		}
		value := math.NaN()
		if o.Value != "." && o.Value != "" {
			value, err = strconv.ParseFloat(o.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("fred %s: bad value %q: %w", req.SeriesID, o.Value, err)
			}
		}
		obs = append(obs, timeseries.Observation{Time: date, Value: value})
	}

	c.logger.Debug("fetched series",
		zap.String("series", req.SeriesID),
		zap.Int("observations", len(obs)))
	return obs, nil
}

// FetchSeries retrieves observations and assembles them onto a regular
// grid of the given frequency.
func (c *Client) FetchSeries(ctx context.Context, req SeriesRequest, freq timeseries.Frequency) (*timeseries.Series, error) {
	obs, err := c.FetchObservations(ctx, req)
	if err != nil {
		return nil, err
	}
	s, err := timeseries.FromObservations(req.SeriesID, freq, obs)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", req.SeriesID, err)
	}
	return s, nil
}

// getWithRetry performs the GET with bounded retries and linear backoff.
// 4xx responses other than 429 are not retried.
func (c *Client) getWithRetry(ctx context.Context, endpoint, seriesID string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * c.backoff
			c.logger.Debug("retrying request",
				zap.String("series", seriesID),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retryable, err := c.get(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, fmt.Errorf("fred %s: %v: %w", seriesID, lastErr, ErrRequestRejected)
		}
	}
	return nil, fmt.Errorf("fred %s: %v: %w", seriesID, lastErr, ErrDataUnavailable)
}

func (c *Client) get(ctx context.Context, endpoint string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("status %d", resp.StatusCode)
	}
}
