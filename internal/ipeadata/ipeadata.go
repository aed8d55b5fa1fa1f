// Package ipeadata fetches monthly time series from the Ipeadata OData API.
package ipeadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ipeadata-tools/inflation-indices/internal/indices"
	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"golang.org/x/time/rate"
)

const seriesPathTemplate = "ValoresSerie(SERCODIGO='%s')"

// ErrNoRecords is returned when a series exists but has no values.
var ErrNoRecords = errors.New("ipeadata: no records found")

// Config controls the HTTP behaviour of the client.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RateLimitPerSec float64
	UserAgent       string
}

// Client queries the ValoresSerie endpoint.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

type valoresResponse struct {
	Value []valor `json:"value"`
}

type valor struct {
	Code  string   `json:"SERCODIGO"`
	Date  string   `json:"VALDATA"`
	Value *float64 `json:"VALVALOR"`
}

// New builds a client, filling unset fields with defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = constants.DefaultIpeadataBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("ipeadata: invalid base url %q: %w", cfg.BaseURL, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultRequestTimeoutSeconds * time.Second
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = constants.DefaultRateLimitPerSec
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.DefaultUserAgent
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), 1),
	}, nil
}

// FetchSeries returns every non-null observation of the series, sorted by
// date. Dates keep the calendar day published upstream, in UTC.
func (c *Client) FetchSeries(ctx context.Context, sourceID string) ([]indices.Point, error) {
	if strings.TrimSpace(sourceID) == "" {
		return nil, errors.New("ipeadata: series code is required")
	}

	body, err := c.doRequest(ctx, fmt.Sprintf(seriesPathTemplate, sourceID))
	if err != nil {
		return nil, err
	}

	var payload valoresResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ipeadata: failed to decode %s: %w", sourceID, err)
	}
	if len(payload.Value) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRecords, sourceID)
	}

	points := make([]indices.Point, 0, len(payload.Value))
	for _, v := range payload.Value {
		if v.Value == nil {
			continue
		}
		date, ok := datetime.ParseDate(v.Date)
		if !ok {
			return nil, fmt.Errorf("ipeadata: unexpected date %q in %s", v.Date, sourceID)
		}
		points = append(points, indices.Point{Date: date, Value: *v.Value})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	endpoint := c.config.BaseURL + strings.TrimLeft(path, "/")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("ipeadata: request failed (%s): %s", resp.Status, snippet(body))
	}
	return body, nil
}

func snippet(body []byte) string {
	const max = 200
	text := strings.TrimSpace(string(body))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
