package stripe

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the API key is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrGatewayError is returned when the gateway rejects the request
	ErrGatewayError = errors.New("gateway error")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrSessionNotFound is returned when the checkout session does not exist
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrInvalidSignature is returned when a webhook signature does not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload is returned when a webhook payload cannot be parsed
	ErrInvalidPayload = errors.New("invalid webhook payload")
)
