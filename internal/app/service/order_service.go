package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrMissingBuyerInfo = errors.New("buyer contact information is incomplete")
	ErrInvalidPhone     = errors.New("phone number is malformed")
	ErrInvalidPayMethod = errors.New("unknown pay method")
	ErrInvalidDelivery  = errors.New("delivery information is incomplete")
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)

type DeliveryInput struct {
	FirstName    string               `json:"first_name"`
	LastName     string               `json:"last_name"`
	Method       model.DeliveryMethod `json:"method"`
	Service      string               `json:"service"`
	OfficeNumber *int                 `json:"office_number"`
	DeliveryDate time.Time            `json:"delivery_date"`
}

type CreateOrderInput struct {
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	Comment     string          `json:"comment"`
	CallConfirm bool            `json:"call_confirm"`
	PayMethod   model.PayMethod `json:"pay_method"`
	Delivery    *DeliveryInput  `json:"delivery"`
}

type OrderService interface {
	CreateOrderFromCart(ctx context.Context, userID uint, sessionID string, input CreateOrderInput) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
}

type orderService struct {
	orderRepo       repository.OrderRepository
	cartRepo        repository.CartRepository
	productRepo     repository.ProductRepository
	discountService DiscountService
	notifier        NotificationService
	db              *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	discountService DiscountService,
	notifier NotificationService,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo:       orderRepo,
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		discountService: discountService,
		notifier:        notifier,
		db:              db,
	}
}

func validateOrderInput(input CreateOrderInput) error {
	if strings.TrimSpace(input.FirstName) == "" ||
		strings.TrimSpace(input.LastName) == "" ||
		strings.TrimSpace(input.Email) == "" {
		return ErrMissingBuyerInfo
	}
	if !phonePattern.MatchString(strings.TrimSpace(input.Phone)) {
		return ErrInvalidPhone
	}

	switch input.PayMethod {
	case model.PayMethodOnline, model.PayMethodOnDelivery, model.PayMethodInstallments:
	default:
		return ErrInvalidPayMethod
	}

	if input.Delivery == nil {
		return ErrInvalidDelivery
	}
	d := input.Delivery
	if strings.TrimSpace(d.FirstName) == "" || strings.TrimSpace(d.LastName) == "" {
		return ErrInvalidDelivery
	}
	switch d.Method {
	case model.DeliverySelf:
	case model.DeliveryPostOffice:
		if d.OfficeNumber == nil {
			return ErrInvalidDelivery
		}
	case model.DeliveryApartment:
	default:
		return ErrInvalidDelivery
	}
	if d.DeliveryDate.IsZero() {
		return ErrInvalidDelivery
	}
	return nil
}

// CreateOrderFromCart converts the session cart into a persisted order. The
// cart's discount references are re-validated at submission time, the order
// plus its delivery record and items are written in one transaction, and the
// cart is cleared only after the transaction commits. A failed creation leaves
// the cart untouched so the customer can retry.
func (s *orderService) CreateOrderFromCart(ctx context.Context, userID uint, sessionID string, input CreateOrderInput) (*model.Order, error) {
	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
		"pay_method": input.PayMethod,
	})

	if err := validateOrderInput(input); err != nil {
		logger.Warn("Order input rejected", map[string]interface{}{
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, err
	}

	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		logger.Warn("Cannot create order: cart is empty", map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
		})
		return nil, ErrEmptyCart
	}

	resolved, err := s.discountService.ResolveCart(cart)
	if err != nil {
		logger.Warn("Discount re-validation failed at order submission", map[string]interface{}{
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, err
	}

	ids := make([]uint, 0, len(cart.Lines))
	for id := range cart.Lines {
		ids = append(ids, id)
	}
	products, err := s.productRepo.FindAvailableByIDs(ids)
	if err != nil {
		return nil, err
	}

	orderItems := make([]model.OrderItem, 0, len(products))
	for _, product := range products {
		line := cart.Lines[product.ID]
		orderItems = append(orderItems, model.OrderItem{
			ProductID: product.ID,
			Price:     line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	if len(orderItems) == 0 {
		logger.Warn("Cannot create order: every cart line vanished from the catalog", map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
		})
		return nil, ErrEmptyCart
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	delivery := &model.Delivery{
		FirstName:    input.Delivery.FirstName,
		LastName:     input.Delivery.LastName,
		Method:       input.Delivery.Method,
		Service:      input.Delivery.Service,
		OfficeNumber: input.Delivery.OfficeNumber,
		DeliveryDate: input.Delivery.DeliveryDate,
	}
	if err := tx.Create(delivery).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create delivery record", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	order := &model.Order{
		UserID:      userID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Phone:       strings.TrimSpace(input.Phone),
		Address:     input.Address,
		Comment:     input.Comment,
		CallConfirm: input.CallConfirm,
		PayMethod:   input.PayMethod,
		DeliveryID:  &delivery.ID,
		OrderItems:  orderItems,
	}
	if resolved.Coupon != nil {
		order.CouponID = &resolved.Coupon.ID
	}
	if resolved.GiftCard != nil {
		order.GiftCardID = &resolved.GiftCard.ID
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id":    userID,
			"item_count": len(orderItems),
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	if err := s.cartRepo.Delete(ctx, sessionID); err != nil {
		// The order exists; a stale cart is recoverable on the next request.
		logger.Error("Failed to clear cart after order creation", err, map[string]interface{}{
			"session_id": sessionID,
			"order_id":   order.ID,
		})
	}

	logger.Info("Order created successfully", map[string]interface{}{
		"user_id":    userID,
		"order_id":   order.ID,
		"item_count": len(orderItems),
		"raw_total":  resolved.RawTotal.String(),
		"total":      resolved.DiscountedTotal.String(),
	})

	created, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyOrderCreated(created)
	}
	return created, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}
