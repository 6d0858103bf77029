package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intshop/intshop-backend/internal/app/service"
	apperrors "github.com/intshop/intshop-backend/internal/errors"
	"github.com/intshop/intshop-backend/internal/middleware"
	"github.com/intshop/intshop-backend/pkg/payment/stripe"
)

// SignatureHeader carries the gateway's webhook signature.
const SignatureHeader = "Stripe-Signature"

type PaymentController struct {
	checkoutService service.CheckoutService
}

func NewPaymentController(checkoutService service.CheckoutService) *PaymentController {
	return &PaymentController{
		checkoutService: checkoutService,
	}
}

type CheckoutRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// CreateCheckoutSession starts an online payment for an unpaid order
// POST /api/v1/payments/checkout
func (ctrl *PaymentController) CreateCheckoutSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Log in to pay for an order")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	session, err := ctrl.checkoutService.CreateCheckoutSession(c.Request.Context(), userID, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderAlreadyPaid):
			apperrors.Conflict(c, apperrors.PaymentAlreadyPaid, "This order is already paid")
		case errors.Is(err, service.ErrOnlinePaymentOnly):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "This order is not payable online")
		default:
			log.Error("Failed to create checkout session", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError,
				"Payment service is unavailable. Please try again")
		}
		return
	}

	log.Info("Checkout session created", map[string]interface{}{
		"user_id":    userID,
		"order_id":   req.OrderID,
		"session_id": session.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}

// HandleWebhook receives signed payment events from the gateway
// POST /api/v1/payments/webhook
func (ctrl *PaymentController) HandleWebhook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unreadable payload")
		return
	}

	if err := ctrl.checkoutService.HandleWebhook(payload, c.GetHeader(SignatureHeader)); err != nil {
		switch {
		case errors.Is(err, stripe.ErrInvalidSignature):
			apperrors.BadRequest(c, apperrors.PaymentInvalidSignature, "Invalid webhook signature")
		case errors.Is(err, stripe.ErrInvalidPayload):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Malformed webhook payload")
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Unknown order reference")
		case errors.Is(err, service.ErrAmountMismatch):
			apperrors.Conflict(c, apperrors.PaymentGatewayError, "Callback amount does not match the order")
		default:
			log.Error("Failed to process webhook", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
	})
}

// PaymentSuccess backs the success redirect page
// GET /api/v1/payments/success?session_id=...
func (ctrl *PaymentController) PaymentSuccess(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID := c.Query("session_id")
	if sessionID == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Missing session_id parameter")
		return
	}

	order, err := ctrl.checkoutService.ConfirmSuccess(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, stripe.ErrSessionNotFound):
			apperrors.NotFound(c, apperrors.PaymentSessionNotFound, "Unknown checkout session")
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrAmountMismatch):
			apperrors.Conflict(c, apperrors.PaymentGatewayError, "Payment could not be confirmed")
		default:
			log.Error("Failed to confirm payment success", err, map[string]interface{}{
				"session_id": sessionID,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError,
				"Payment service is unavailable. Please try again")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Thank you for your order",
		"order": gin.H{
			"id":      order.ID,
			"is_paid": order.IsPaid,
		},
	})
}

// PaymentCancel backs the cancel redirect page; the order stays unpaid
// GET /api/v1/payments/cancel
func (ctrl *PaymentController) PaymentCancel(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	log.Info("Payment canceled by the customer", map[string]interface{}{
		"order_id": c.Query("order_id"),
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment canceled. Your order is saved and can be paid later",
	})
}
