package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intshop/intshop-backend/internal/app/service"
	apperrors "github.com/intshop/intshop-backend/internal/errors"
	"github.com/intshop/intshop-backend/internal/middleware"
)

type DiscountController struct {
	discountService service.DiscountService
}

func NewDiscountController(discountService service.DiscountService) *DiscountController {
	return &DiscountController{
		discountService: discountService,
	}
}

type ApplyCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func respondDiscountError(c *gin.Context, err error) bool {
	var discountErr *service.DiscountError
	if !errors.As(err, &discountErr) {
		return false
	}

	switch discountErr.Reason {
	case service.DiscountReasonExpired:
		apperrors.BadRequest(c, apperrors.DiscountExpired, "This code is outside its validity period")
	case service.DiscountReasonNotFound:
		apperrors.NotFound(c, apperrors.DiscountNotFound, "Unknown code")
	case service.DiscountReasonAlreadyUsed:
		apperrors.Conflict(c, apperrors.DiscountAlreadyUsed, "This code has already been redeemed")
	case service.DiscountReasonEmptyCart:
		apperrors.BadRequest(c, apperrors.DiscountEmptyCart, "Add something to the cart before applying a code")
	default:
		apperrors.InternalError(c, "")
	}
	return true
}

// ApplyCoupon attaches a percentage coupon to the session cart
// POST /api/v1/cart/coupon
func (ctrl *DiscountController) ApplyCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	var req ApplyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	if err := ctrl.discountService.ApplyCoupon(c.Request.Context(), sessionID, req.Code); err != nil {
		if respondDiscountError(c, err) {
			return
		}
		log.Error("Failed to apply coupon", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon applied",
	})
}

// CancelCoupon detaches the coupon from the session cart
// DELETE /api/v1/cart/coupon
func (ctrl *DiscountController) CancelCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	if err := ctrl.discountService.CancelCoupon(c.Request.Context(), sessionID); err != nil {
		log.Error("Failed to cancel coupon", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.InternalError(c, "Failed to cancel coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon removed",
	})
}

// ApplyGiftCard redeems a gift card for the authenticated profile and
// attaches it to the session cart
// POST /api/v1/cart/gift-card
func (ctrl *DiscountController) ApplyGiftCard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Log in to redeem a gift card")
		return
	}

	var req ApplyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	if err := ctrl.discountService.ApplyGiftCard(c.Request.Context(), sessionID, req.Code, userID); err != nil {
		if respondDiscountError(c, err) {
			return
		}
		log.Error("Failed to apply gift card", err, map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "gift card")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Gift card applied",
	})
}

// CancelGiftCard releases the gift card hold and detaches it from the cart
// DELETE /api/v1/cart/gift-card
func (ctrl *DiscountController) CancelGiftCard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	if err := ctrl.discountService.CancelGiftCard(c.Request.Context(), sessionID); err != nil {
		log.Error("Failed to cancel gift card", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.InternalError(c, "Failed to cancel gift card")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Gift card removed",
	})
}
