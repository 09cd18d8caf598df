// Package prayertimes provides prayer time providers backed by the Aladhan
// HTTP API, plus a caching decorator.
package prayertimes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// DefaultBaseURL is the public Aladhan API.
const DefaultBaseURL = "https://api.aladhan.com/v1"

// DefaultMethod is the Muslim World League calculation method.
const DefaultMethod = 3

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// Client fetches prayer times from the Aladhan timings endpoint.
type Client struct {
	baseURL    string
	method     int
	httpClient *http.Client
}

// Ensure Client implements ports.PrayerTimesProvider.
var _ ports.PrayerTimesProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates an Aladhan client. An empty baseURL uses the public API.
func NewClient(baseURL string, method int, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		method:     method,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Method returns the calculation method sent with every request.
func (c *Client) Method() int {
	return c.method
}

type timingsResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// Fetch returns the prayer times for the calendar day of date, in date's
// location.
func (c *Client) Fetch(ctx context.Context, date time.Time, lat, lon float64) (*domain.PrayerTimes, error) {
	endpoint := c.timingsURL(date, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %w", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", domain.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrProviderUnavailable, err)
	}

	var payload timingsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrProviderUnavailable, err)
	}
	if payload.Code != 0 && payload.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: api returned code %d (%s)", domain.ErrProviderUnavailable, payload.Code, payload.Status)
	}

	times := &domain.PrayerTimes{}
	set := []*string{&times.Fajr, &times.Dhuhr, &times.Asr, &times.Maghrib, &times.Isha}
	for i, p := range domain.PrayerOrder {
		*set[i] = strings.TrimSpace(payload.Data.Timings[p.Label()])
	}
	if err := times.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	return times, nil
}

func (c *Client) timingsURL(date time.Time, lat, lon float64) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("method", strconv.Itoa(c.method))
	if name := date.Location().String(); name != "Local" {
		q.Set("timezonestring", name)
	}
	return fmt.Sprintf("%s/timings/%s?%s", c.baseURL, date.Format("02-01-2006"), q.Encode())
}
