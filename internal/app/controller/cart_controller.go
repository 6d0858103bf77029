package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/intshop/intshop-backend/internal/app/service"
	apperrors "github.com/intshop/intshop-backend/internal/errors"
	"github.com/intshop/intshop-backend/internal/middleware"
)

type CartController struct {
	cartService     service.CartService
	discountService service.DiscountService
}

func NewCartController(cartService service.CartService, discountService service.DiscountService) *CartController {
	return &CartController{
		cartService:     cartService,
		discountService: discountService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// GetCart returns the session cart with resolved totals
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	cart, items, err := ctrl.cartService.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.InternalError(c, "Failed to fetch cart")
		return
	}

	body := gin.H{
		"cart_items":  items,
		"line_count":  cart.DistinctLineCount(),
		"total_items": cart.TotalItemCount(),
	}

	resolved, err := ctrl.discountService.ResolveCart(cart)
	if err != nil {
		var discountErr *service.DiscountError
		if errors.As(err, &discountErr) {
			// The cart still renders; the stale code is reported, not dropped.
			log.Warn("Cart discount no longer resolves", map[string]interface{}{
				"session_id": sessionID,
				"subject":    discountErr.Subject,
				"reason":     discountErr.Reason,
			})
			body["raw_total"] = cart.RawTotal()
			body["discount_error"] = gin.H{
				"subject": discountErr.Subject,
				"reason":  discountErr.Reason,
			}
			c.JSON(http.StatusOK, body)
			return
		}
		log.Error("Failed to resolve cart discounts", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.InternalError(c, "Failed to fetch cart")
		return
	}

	body["raw_total"] = resolved.RawTotal
	body["discounted_total"] = resolved.DiscountedTotal
	body["total_discount"] = resolved.TotalDiscount
	if resolved.Coupon != nil {
		body["coupon"] = resolved.Coupon
	}
	if resolved.GiftCard != nil {
		body["gift_card"] = resolved.GiftCard
	}

	c.JSON(http.StatusOK, body)
}

// AddToCart puts a product in the cart or overwrites its quantity
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	err := ctrl.cartService.AddToCart(c.Request.Context(), sessionID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for cart", map[string]interface{}{
				"session_id": sessionID,
				"product_id": req.ProductID,
			})
			apperrors.NotFound(c, apperrors.CartProductNotFound, "Product not found")
			return
		}
		if errors.Is(err, service.ErrInvalidQuantity) {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Quantity must be at least 1")
			return
		}
		log.Error("Failed to add product to cart", err, map[string]interface{}{
			"session_id": sessionID,
			"product_id": req.ProductID,
		})
		apperrors.InternalError(c, "Failed to add product to cart")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product added to cart",
	})
}

// RemoveFromCart drops one product line from the cart
// DELETE /api/v1/cart/:productID
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	idStr := c.Param("productID")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"session_id": sessionID,
			"product_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	if err := ctrl.cartService.RemoveFromCart(c.Request.Context(), sessionID, uint(id)); err != nil {
		log.Error("Failed to remove product from cart", err, map[string]interface{}{
			"session_id": sessionID,
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to remove product from cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product removed from cart",
	})
}

// ClearCart empties the cart and drops its discount references
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	if err := ctrl.cartService.ClearCart(c.Request.Context(), sessionID); err != nil {
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.InternalError(c, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}
