package stripe

// Config represents the configuration for the payment gateway client
type Config struct {
	// SecretKey authenticates API requests
	SecretKey string

	// WebhookSecret verifies the signature on confirmation callbacks
	WebhookSecret string

	// BaseURL is the gateway API base URL
	BaseURL string

	// Currency is the ISO currency code for all sessions
	Currency string

	// SuccessURL is the redirect URL for completed payment
	SuccessURL string

	// CancelURL is the redirect URL for an abandoned payment
	CancelURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrInvalidRequest
	}
	if c.WebhookSecret == "" {
		return ErrInvalidRequest
	}
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	if c.Currency == "" {
		return ErrInvalidRequest
	}
	if c.SuccessURL == "" {
		return ErrInvalidRequest
	}
	if c.CancelURL == "" {
		return ErrInvalidRequest
	}
	return nil
}
