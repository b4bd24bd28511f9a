package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

const (
	calculatePath              = "calculate-shipping"
	defaultTimeout             = 10 * time.Second
	requestBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired = errors.New("shipping base url is required")
	// ErrNoCost is returned when the service answers without a usable cost.
	ErrNoCost = errors.New("shipping service returned no cost")
)

// Client calls the shipping-cost service for a pharmacy and speed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey sets the bearer key sent with each request.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the shipping client for the given service base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

// QuoteRequest identifies one shipment to price. A nil PharmacyID asks for the default fulfillment pharmacy.
type QuoteRequest struct {
	PharmacyID    *uuid.UUID          `json:"pharmacy_id"`
	ShippingSpeed enums.ShippingSpeed `json:"shipping_speed"`
}

// CalculateShipping returns the cost of shipping one group from the pharmacy at the requested speed.
func (c *Client) CalculateShipping(ctx context.Context, pharmacyID uuid.UUID, speed enums.ShippingSpeed) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if !speed.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipping speed %q", speed))
	}

	quote := QuoteRequest{ShippingSpeed: speed}
	if pharmacyID != uuid.Nil {
		quote.PharmacyID = &pharmacyID
	}
	payload, err := json.Marshal(quote)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal shipping request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(calculatePath), bytes.NewReader(payload))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build shipping request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute shipping request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "shipping request failed")
	}

	var apiResp struct {
		ShippingCost *decimal.Decimal `json:"shipping_cost"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shipping response")
	}
	if apiResp.ShippingCost == nil || apiResp.ShippingCost.IsNegative() {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrNoCost, "shipping response missing cost")
	}

	return *apiResp.ShippingCost, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
