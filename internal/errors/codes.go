package errors

// Error code constants returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL; the frontend maps codes to messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidPhone  = "VALIDATION_INVALID_PHONE"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Cart (CART_) ====================
	CartProductNotFound = "CART_PRODUCT_NOT_FOUND"
	CartEmpty           = "CART_EMPTY"

	// ==================== Discounts (DISCOUNT_) ====================
	DiscountExpired           = "DISCOUNT_EXPIRED"
	DiscountNotFound          = "DISCOUNT_NOT_FOUND"
	DiscountAlreadyUsed       = "DISCOUNT_ALREADY_USED"
	DiscountEmptyCart = "DISCOUNT_EMPTY_CART"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound       = "ORDER_NOT_FOUND"
	OrderEmptyCart      = "ORDER_EMPTY_CART"
	OrderCreationFailed = "ORDER_CREATION_FAILED"

	// ==================== Payments (PAYMENT_) ====================
	PaymentGatewayError     = "PAYMENT_GATEWAY_ERROR"
	PaymentSessionNotFound  = "PAYMENT_SESSION_NOT_FOUND"
	PaymentInvalidSignature = "PAYMENT_INVALID_SIGNATURE"
	PaymentAlreadyPaid      = "PAYMENT_ALREADY_PAID"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
