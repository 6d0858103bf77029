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

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

// CreateOrder converts the session cart into an order
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, _ := middleware.GetSessionID(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Log in to place an order")
		return
	}

	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warn("Invalid order request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	order, err := ctrl.orderService.CreateOrderFromCart(c.Request.Context(), userID, sessionID, input)
	if err != nil {
		if respondDiscountError(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.OrderEmptyCart, "The cart is empty")
		case errors.Is(err, service.ErrMissingBuyerInfo):
			apperrors.BadRequest(c, apperrors.ValidationRequired, "First name, last name and email are required")
		case errors.Is(err, service.ErrInvalidPhone):
			apperrors.BadRequest(c, apperrors.ValidationInvalidPhone, "Phone number is malformed")
		case errors.Is(err, service.ErrInvalidPayMethod):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unknown pay method")
		case errors.Is(err, service.ErrInvalidDelivery):
			apperrors.BadRequest(c, apperrors.ValidationRequired, "Delivery information is incomplete")
		default:
			log.Error("Failed to create order", err, map[string]interface{}{
				"user_id":    userID,
				"session_id": sessionID,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.OrderCreationFailed,
				"Could not place the order. Please try again")
		}
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"order":   order,
	})
}

// GetOrders lists the authenticated user's orders
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns one of the authenticated user's orders
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}
