package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/pkg/logger"
	"github.com/intshop/intshop-backend/pkg/payment/stripe"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderAlreadyPaid  = errors.New("order is already paid")
	ErrOnlinePaymentOnly = errors.New("order pay method does not use online checkout")
	ErrAmountMismatch    = errors.New("callback amount does not match the order total")
)

// PaymentGateway is the slice of the gateway client the checkout flow needs.
// *stripe.Client satisfies it; tests substitute a recorder.
type PaymentGateway interface {
	CreateCoupon(ctx context.Context, params stripe.CouponParams) (*stripe.Coupon, error)
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, userID, orderID uint) (*stripe.CheckoutSession, error)
	HandleWebhook(payload []byte, sigHeader string) error
	ConfirmSuccess(ctx context.Context, sessionID string) (*model.Order, error)
}

type checkoutService struct {
	orderRepo       repository.OrderRepository
	discountService DiscountService
	notifier        NotificationService
	gateway         PaymentGateway
	gatewayConfig   stripe.Config
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	discountService DiscountService,
	notifier NotificationService,
	gateway PaymentGateway,
	gatewayConfig stripe.Config,
) CheckoutService {
	return &checkoutService{
		orderRepo:       orderRepo,
		discountService: discountService,
		notifier:        notifier,
		gateway:         gateway,
		gatewayConfig:   gatewayConfig,
	}
}

var centsFactor = decimal.NewFromInt(100)

// toCents converts a 2-place money amount to the gateway's integer smallest
// currency unit.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsFactor).Round(0).IntPart()
}

// CreateCheckoutSession builds a gateway checkout session for an unpaid order:
// one line item per order item priced in integer cents from the immutable
// snapshot, and at most one discount object. A coupon alone maps to a
// percentage discount; any fixed amount collapses into a single amount-off
// discount equal to the resolver's pre-computed total, so the gateway can
// never re-derive a different price.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, userID, orderID uint) (*stripe.CheckoutSession, error) {
	logger.Info("Creating checkout session", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		logger.Warn("Checkout denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	if order.IsPaid {
		return nil, ErrOrderAlreadyPaid
	}
	if order.PayMethod != model.PayMethodOnline {
		return nil, ErrOnlinePaymentOnly
	}

	lineItems := make([]stripe.LineItem, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		lineItems = append(lineItems, stripe.LineItem{
			Name:       item.Product.Name,
			UnitAmount: toCents(item.Price),
			Quantity:   item.Quantity,
			Metadata:   map[string]string{"product_id": strconv.FormatUint(uint64(item.ProductID), 10)},
		})
	}

	totals := s.discountService.ResolveTotals(order.RawTotal(), order.Coupon, order.GiftCard)

	var couponID string
	if totals.TotalDiscount.IsPositive() {
		params := stripe.CouponParams{}
		if order.Coupon != nil && order.GiftCard == nil {
			percent := order.Coupon.Discount
			params.PercentOff = &percent
		} else {
			amountOff := toCents(totals.TotalDiscount)
			params.AmountOff = &amountOff
		}

		gatewayCoupon, err := s.gateway.CreateCoupon(ctx, params)
		if err != nil {
			logger.Error("Failed to create gateway discount", err, map[string]interface{}{
				"order_id": orderID,
			})
			return nil, err
		}
		couponID = gatewayCoupon.ID
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		LineItems:         lineItems,
		CouponID:          couponID,
		CustomerEmail:     order.Email,
		ClientReferenceID: strconv.FormatUint(uint64(order.ID), 10),
		SuccessURL:        s.gatewayConfig.SuccessURL,
		CancelURL:         s.gatewayConfig.CancelURL,
	})
	if err != nil {
		logger.Error("Failed to create checkout session", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	logger.Info("Checkout session created", map[string]interface{}{
		"order_id":     orderID,
		"session_id":   session.ID,
		"amount_total": session.AmountTotal,
	})
	return session, nil
}

// HandleWebhook processes a signed gateway callback. Completion events flip
// the order to paid exactly once; replays fall through the conditional update
// as no-ops and the stored payment intent id is never overwritten.
func (s *checkoutService) HandleWebhook(payload []byte, sigHeader string) error {
	event, err := stripe.ConstructEvent(payload, sigHeader, s.gatewayConfig.WebhookSecret)
	if err != nil {
		logger.Warn("Rejected webhook with bad signature", map[string]interface{}{
			"reason": err.Error(),
		})
		return err
	}

	if event.Type != "checkout.session.completed" {
		logger.Debug("Ignoring webhook event", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		return nil
	}

	session, err := stripe.CheckoutSessionFromEvent(event)
	if err != nil {
		return err
	}

	// Delayed payment methods complete the session before the money moves.
	// The order flips only on a callback whose payment status is paid.
	if session.PaymentStatus != "paid" {
		logger.Info("Ignoring completed session that is not yet paid", map[string]interface{}{
			"session_id":     session.ID,
			"payment_status": session.PaymentStatus,
		})
		return nil
	}

	orderID, err := strconv.ParseUint(session.ClientReferenceID, 10, 64)
	if err != nil {
		logger.Warn("Webhook session has no usable order reference", map[string]interface{}{
			"session_id":       session.ID,
			"client_reference": session.ClientReferenceID,
		})
		return stripe.ErrInvalidPayload
	}

	return s.confirmPayment(uint(orderID), session)
}

// ConfirmSuccess backs the success page: it re-reads the session from the
// gateway and tolerates the webhook having already flipped the order.
func (s *checkoutService) ConfirmSuccess(ctx context.Context, sessionID string) (*model.Order, error) {
	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	orderID, err := strconv.ParseUint(session.ClientReferenceID, 10, 64)
	if err != nil {
		return nil, stripe.ErrInvalidPayload
	}

	if session.PaymentStatus == "paid" {
		if err := s.confirmPayment(uint(orderID), session); err != nil {
			return nil, err
		}
	}

	order, err := s.orderRepo.FindByID(uint(orderID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *checkoutService) confirmPayment(orderID uint, session *stripe.CheckoutSession) error {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Payment confirmation for unknown order", map[string]interface{}{
				"order_id":   orderID,
				"session_id": session.ID,
			})
			return ErrOrderNotFound
		}
		return err
	}

	expected := toCents(s.discountService.ResolveTotals(order.RawTotal(), order.Coupon, order.GiftCard).DiscountedTotal)
	if session.AmountTotal != expected {
		logger.Error("Callback amount mismatch, order left untouched", ErrAmountMismatch, map[string]interface{}{
			"order_id":        orderID,
			"session_id":      session.ID,
			"expected_amount": expected,
			"callback_amount": session.AmountTotal,
		})
		return ErrAmountMismatch
	}

	flipped, err := s.orderRepo.MarkPaid(orderID, session.PaymentIntent)
	if err != nil {
		return err
	}
	if !flipped {
		logger.Debug("Order already marked paid, confirmation is a no-op", map[string]interface{}{
			"order_id":   orderID,
			"session_id": session.ID,
		})
		return nil
	}

	logger.Info("Order marked paid", map[string]interface{}{
		"order_id":       orderID,
		"session_id":     session.ID,
		"payment_intent": session.PaymentIntent,
	})

	if s.notifier != nil {
		if paid, err := s.orderRepo.FindByID(orderID); err == nil {
			s.notifier.NotifyOrderPaid(paid)
		}
	}
	return nil
}
