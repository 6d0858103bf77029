package stripe

import (
	"encoding/json"
	"fmt"
)

// LineItem is one priced row in a checkout session. UnitAmount is expressed
// in the smallest currency unit (integer cents). Name and Metadata are
// display-only: the gateway never reprices from them.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
	Metadata   map[string]string
}

// CouponParams creates a gateway discount object. Exactly one of PercentOff
// or AmountOff must be set; AmountOff is in the smallest currency unit.
type CouponParams struct {
	PercentOff *int
	AmountOff  *int64
}

// Coupon represents a gateway discount object
type Coupon struct {
	ID         string   `json:"id"`
	PercentOff *float64 `json:"percent_off"`
	AmountOff  *int64   `json:"amount_off"`
	Currency   string   `json:"currency"`
	Valid      bool     `json:"valid"`
}

// CheckoutSessionParams are the parameters for creating a checkout session.
// ClientReferenceID is the caller's correlation key; the gateway echoes it
// back on the confirmation callback.
type CheckoutSessionParams struct {
	LineItems         []LineItem
	CouponID          string
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
}

// CheckoutSession represents a pending or completed payment attempt
type CheckoutSession struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	Mode              string `json:"mode"`
	Status            string `json:"status"`
	PaymentStatus     string `json:"payment_status"`
	AmountSubtotal    int64  `json:"amount_subtotal"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	ClientReferenceID string `json:"client_reference_id"`
	PaymentIntent     string `json:"payment_intent"`
}

// Event is a signed webhook notification from the gateway
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
	Created int64 `json:"created"`
}

// CheckoutSessionFromEvent extracts the session object from a
// checkout.session.* event payload.
func CheckoutSessionFromEvent(event Event) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &session, nil
}

// ErrorResponse represents an error response from the gateway API
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ErrorResponse) String() string {
	return fmt.Sprintf("type=%s, code=%s, msg=%s", e.Error.Type, e.Error.Code, e.Error.Message)
}
