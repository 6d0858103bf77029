package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a low-level error into a code and message safe to show
// the customer. Sensitive detail stays in the logs.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM record-not-found
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL constraint violations

	// Unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "Referenced data is missing or still in use",
		}
	}

	// Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	// Check constraint violation (23514)
	if strings.Contains(errStrLower, "check constraint") {
		if strings.Contains(errStrLower, "discount") {
			return ErrorInfo{
				Code:    ValidationInvalidRange,
				Message: "Discount must be between 0 and 100 percent",
			}
		}
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "Invalid input value",
		}
	}

	// 3. Network errors towards external services
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "External service unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "This email is already registered",
		}
	}
	if strings.Contains(errLower, "coupons") && strings.Contains(errLower, "code") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A coupon with this code already exists",
		}
	}
	if strings.Contains(errLower, "gift_cards") && strings.Contains(errLower, "code") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A gift card with this code already exists",
		}
	}
	if strings.Contains(errLower, "gift_card_id") {
		return ErrorInfo{
			Code:    DiscountAlreadyUsed,
			Message: "This gift card is already attached to another order",
		}
	}
	if strings.Contains(errLower, "slug") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A product with this identifier already exists",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "product"):
		return "Product not found"
	case strings.Contains(contextLower, "order"):
		return "Order not found"
	case strings.Contains(contextLower, "coupon"):
		return "Coupon not found"
	case strings.Contains(contextLower, "gift"):
		return "Gift card not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "Requested data not found"
}
