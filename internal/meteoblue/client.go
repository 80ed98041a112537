// Package meteoblue is the HTTP client for the meteoblue packages and
// account usage APIs.
package meteoblue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/marine-forecast/internal/forecast"
	"github.com/i474232898/marine-forecast/internal/metrics"
	"github.com/i474232898/marine-forecast/internal/quota"
)

const (
	DefaultBaseURL  = "https://my.meteoblue.com/packages"
	DefaultUsageURL = "https://my.meteoblue.com/account/usage"
)

// ErrNoAPIKey is returned when a request is attempted without a key.
var ErrNoAPIKey = errors.New("meteoblue api key not configured")

// Config configures a Client.
type Config struct {
	APIKey   string
	BaseURL  string
	UsageURL string
	Backoff  BackoffConfig
}

// Client talks to meteoblue. It satisfies forecast.Provider and
// quota.UsageSource.
type Client struct {
	apiKey   string
	baseURL  string
	usageURL string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewClient returns a Client; zero Config fields take defaults.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UsageURL == "" {
		cfg.UsageURL = DefaultUsageURL
	}
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "meteoblue",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		usageURL: cfg.UsageURL,
		httpCfg:  HTTPClientConfig{Client: httpClient, Backoff: cfg.Backoff},
		circuit:  cb,
	}
}

// Forecast requests every package in req at one position.
func (c *Client) Forecast(ctx context.Context, req forecast.Request) (resp *forecast.RawForecastResponse, err error) {
	start := time.Now()
	defer func() { observe("forecast", start, err) }()

	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if len(req.Packages) == 0 {
		return nil, forecast.ErrNoPackages
	}

	values := url.Values{}
	values.Set("apikey", c.apiKey)
	values.Set("lat", formatCoord(req.Latitude))
	values.Set("lon", formatCoord(req.Longitude))
	values.Set("asl", strconv.Itoa(int(req.Altitude)))
	values.Set("format", "json")
	if req.Days > 0 {
		values.Set("forecast_days", strconv.Itoa(req.Days))
	}
	u := c.baseURL + "/" + req.Packages.ProviderIDs() + "?" + values.Encode()

	var out forecast.RawForecastResponse
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("meteoblue forecast %s: %w", req.Packages.ProviderIDs(), err)
	}
	out.Localize()
	return &out, nil
}

// Usage fetches the account usage report.
func (c *Client) Usage(ctx context.Context) (report *quota.UsageReport, err error) {
	start := time.Now()
	defer func() { observe("usage", start, err) }()

	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	values := url.Values{}
	values.Set("apikey", c.apiKey)

	var out quota.UsageReport
	if err := c.getJSON(ctx, c.usageURL+"?"+values.Encode(), &out); err != nil {
		return nil, fmt.Errorf("meteoblue usage: %w", err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, c.httpCfg, c.circuit, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func observe(kind string, start time.Time, err error) {
	metrics.ProviderRequests.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	metrics.ProviderLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 5, 64)
}
