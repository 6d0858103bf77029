package stripe

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
)

// Client represents a payment gateway API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new gateway client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// CreateCoupon creates a discount object usable in a checkout session
func (c *Client) CreateCoupon(ctx context.Context, params CouponParams) (*Coupon, error) {
	form := url.Values{}
	form.Set("duration", "once")

	switch {
	case params.PercentOff != nil:
		form.Set("percent_off", strconv.Itoa(*params.PercentOff))
	case params.AmountOff != nil:
		form.Set("amount_off", strconv.FormatInt(*params.AmountOff, 10))
		form.Set("currency", c.config.Currency)
	default:
		return nil, fmt.Errorf("%w: coupon needs percent_off or amount_off", ErrInvalidRequest)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "coupons", form)
	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	var coupon Coupon
	if err := json.Unmarshal(body, &coupon); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coupon response: %w", err)
	}
	return &coupon, nil
}

// CreateCheckoutSession creates a one-time payment session and returns it
// with the redirect URL the customer must be sent to.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	if len(params.LineItems) == 0 {
		return nil, fmt.Errorf("%w: checkout session needs at least one line item", ErrInvalidRequest)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("client_reference_id", params.ClientReferenceID)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}

	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", c.config.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		for k, v := range item.Metadata {
			form.Set(fmt.Sprintf("%s[price_data][product_data][metadata][%s]", prefix, k), v)
		}
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	if params.CouponID != "" {
		form.Set("discounts[0][coupon]", params.CouponID)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "checkout/sessions", form)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session response: %w", err)
	}
	return &session, nil
}

// GetCheckoutSession retrieves an existing checkout session by id
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrInvalidRequest)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session response: %w", err)
	}
	return &session, nil
}

// doRequest performs a form-encoded HTTP request to the gateway API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	reqURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.BaseURL, "/"), endpoint)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
		}

		errorMsg := fmt.Sprintf("gateway API error - Status: %d, %s", resp.StatusCode, errResp.String())

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errorMsg)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errorMsg)
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, errorMsg)
		default:
			return nil, fmt.Errorf("%w: %s", ErrGatewayError, errorMsg)
		}
	}

	return body, nil
}
