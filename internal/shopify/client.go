// Package shopify reads paid orders from the store, verifies order webhooks
// and extracts the birth data customers enter at checkout.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cosmikids/mandala/internal/httpclient"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultAPIVersion is the Admin API version the client speaks.
const DefaultAPIVersion = "2024-01"

// ErrNotConfigured is returned when the store URL or access token is missing.
var ErrNotConfigured = errors.New("shopify client not configured")

// Config holds the store and Admin API credentials
type Config struct {
	StoreURL    string // "shop.myshopify.com" or a full base URL
	AccessToken string
	APIVersion  string
	RetryMax    int
}

// Client talks to the Shopify Admin REST API.
type Client struct {
	cfg    Config
	http   *retryablehttp.Client
	logger *zap.Logger
}

// NewClient creates an Admin API client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	return &Client{
		cfg:    cfg,
		http:   httpclient.New(cfg.RetryMax, logger),
		logger: logger,
	}
}

// Enabled reports whether the client has a store and a token.
func (c *Client) Enabled() bool {
	return c.cfg.StoreURL != "" && c.cfg.AccessToken != ""
}

func (c *Client) baseURL() string {
	store := strings.TrimRight(c.cfg.StoreURL, "/")
	if !strings.Contains(store, "://") {
		store = "https://" + store
	}
	return fmt.Sprintf("%s/admin/api/%s", store, c.cfg.APIVersion)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*retryablehttp.Request, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var rawBody interface{}
	if payload != nil {
		rawBody = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL()+path, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// ListOrders returns orders of any status created at or after since.
func (c *Client) ListOrders(ctx context.Context, since time.Time, limit int) ([]Order, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("status", "any")
	q.Set("created_at_min", since.UTC().Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, "/orders.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("shopify orders: %w", err)
	}

	var payload struct {
		Orders []Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	c.logger.Debug("orders fetched",
		zap.Time("since", since),
		zap.Int("count", len(payload.Orders)))
	return payload.Orders, nil
}

// AnnotateOrder replaces the order note.
func (c *Client) AnnotateOrder(ctx context.Context, id int64, note string) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}

	body := map[string]interface{}{
		"order": map[string]interface{}{
			"id":   id,
			"note": note,
		},
	}
	req, err := c.newRequest(ctx, http.MethodPut, fmt.Sprintf("/orders/%d.json", id), body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", id, err)
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return fmt.Errorf("shopify order %d: %w", id, err)
	}
	return nil
}

// ParseOrder decodes a webhook payload.
func ParseOrder(data []byte) (*Order, error) {
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse order: %w", err)
	}
	return &o, nil
}
