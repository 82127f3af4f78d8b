// Package astrology fetches natal charts from the western horoscope API.
package astrology

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cosmikids/mandala/internal/chart"
	"github.com/cosmikids/mandala/internal/httpclient"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Madrid, used when the order carries no coordinates
const (
	DefaultLatitude  = 40.4168
	DefaultLongitude = -3.7038
	DefaultTimezone  = 1.0
)

// ErrMissingCredentials is returned when no user id or API key is configured.
var ErrMissingCredentials = errors.New("astrology credentials not configured")

// Config holds the provider endpoint and credentials
type Config struct {
	BaseURL  string
	UserID   string
	APIKey   string
	RetryMax int

	// Defaults applied to BirthData with zero coordinates
	Latitude  float64
	Longitude float64
	Timezone  float64
}

// BirthData is the request body of the western_horoscope endpoint.
type BirthData struct {
	Day   int     `json:"day"`
	Month int     `json:"month"`
	Year  int     `json:"year"`
	Hour  int     `json:"hour"`
	Min   int     `json:"min"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	TZone float64 `json:"tzone"`
}

// Client calls the astrology provider.
type Client struct {
	cfg    Config
	http   *retryablehttp.Client
	logger *zap.Logger
}

// NewClient creates a provider client. Zero default coordinates fall back
// to Madrid.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Latitude == 0 && cfg.Longitude == 0 {
		cfg.Latitude, cfg.Longitude = DefaultLatitude, DefaultLongitude
	}
	if cfg.Timezone == 0 {
		cfg.Timezone = DefaultTimezone
	}
	return &Client{
		cfg:    cfg,
		http:   httpclient.New(cfg.RetryMax, logger),
		logger: logger,
	}
}

// WithDefaults fills zero coordinates and timezone from the client config.
func (c *Client) WithDefaults(b BirthData) BirthData {
	if b.Lat == 0 {
		b.Lat = c.cfg.Latitude
	}
	if b.Lon == 0 {
		b.Lon = c.cfg.Longitude
	}
	if b.TZone == 0 {
		b.TZone = c.cfg.Timezone
	}
	return b
}

// WesternHoroscope fetches the natal chart for a birth. Names in the
// response are Spanish.
func (c *Client) WesternHoroscope(ctx context.Context, b BirthData) (*chart.Horoscope, error) {
	if c.cfg.UserID == "" || c.cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}

	body, err := json.Marshal(c.WithDefaults(b))
	if err != nil {
		return nil, fmt.Errorf("failed to encode birth data: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/western_horoscope"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create horoscope request: %w", err)
	}
	req.SetBasicAuth(c.cfg.UserID, c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "es")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch horoscope: %w", err)
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("astrology provider: %w", err)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read horoscope response: %w", err)
	}

	h, err := chart.ParseHoroscope(data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("horoscope fetched",
		zap.Int("planets", len(h.Planets)),
		zap.Int("houses", len(h.Houses)))
	return h, nil
}
