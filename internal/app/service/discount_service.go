package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountReason string

const (
	DiscountReasonExpired     DiscountReason = "expired"
	DiscountReasonNotFound    DiscountReason = "not_found"
	DiscountReasonAlreadyUsed DiscountReason = "already_used"
	DiscountReasonEmptyCart   DiscountReason = "empty_cart"
)

// DiscountError names the exact reason a code was rejected. A rejected code is
// always reported, never silently dropped from the cart.
type DiscountError struct {
	Subject string
	Reason  DiscountReason
}

func (e *DiscountError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Subject, e.Reason)
}

var percentBase = decimal.NewFromInt(100)

// Totals is the money breakdown for a cart after discount resolution.
// DiscountedTotal is rounded half-up to 2 places and never negative;
// TotalDiscount is derived from the rounded value so the three figures
// always reconcile exactly.
type Totals struct {
	RawTotal        decimal.Decimal `json:"raw_total"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
}

// ResolvedDiscounts carries the totals together with the validated codes the
// cart currently references.
type ResolvedDiscounts struct {
	Totals
	Coupon   *model.Coupon
	GiftCard *model.GiftCard
}

type DiscountService interface {
	ResolveTotals(raw decimal.Decimal, coupon *model.Coupon, card *model.GiftCard) Totals
	ResolveCart(cart *model.Cart) (*ResolvedDiscounts, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) error
	CancelCoupon(ctx context.Context, sessionID string) error
	ApplyGiftCard(ctx context.Context, sessionID, code string, profileID uint) error
	CancelGiftCard(ctx context.Context, sessionID string) error
}

type discountService struct {
	cartRepo     repository.CartRepository
	couponRepo   repository.CouponRepository
	giftCardRepo repository.GiftCardRepository
}

func NewDiscountService(
	cartRepo repository.CartRepository,
	couponRepo repository.CouponRepository,
	giftCardRepo repository.GiftCardRepository,
) DiscountService {
	return &discountService{
		cartRepo:     cartRepo,
		couponRepo:   couponRepo,
		giftCardRepo: giftCardRepo,
	}
}

// ResolveTotals applies the percentage coupon against the raw total and then
// subtracts the gift card's fixed amount. Both reductions are computed off the
// raw total, so combining the two never compounds: 600 with a 20% coupon and a
// 250 gift card resolves to 600 - 120 - 250 = 230, not 20% off the remainder.
func (s *discountService) ResolveTotals(raw decimal.Decimal, coupon *model.Coupon, card *model.GiftCard) Totals {
	discounted := raw
	if coupon != nil && coupon.Discount > 0 {
		percentOff := raw.Mul(decimal.NewFromInt(int64(coupon.Discount))).Div(percentBase)
		discounted = discounted.Sub(percentOff)
	}
	if card != nil {
		discounted = discounted.Sub(card.Amount)
	}

	discounted = discounted.Round(2)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	return Totals{
		RawTotal:        raw,
		DiscountedTotal: discounted,
		TotalDiscount:   raw.Sub(discounted),
	}
}

// ResolveCart re-validates the cart's discount references against the live
// records and the current clock. A coupon that expired since it was applied
// fails with the expired reason; there is no fallback to the undiscounted
// price.
func (s *discountService) ResolveCart(cart *model.Cart) (*ResolvedDiscounts, error) {
	now := time.Now()
	resolved := &ResolvedDiscounts{}

	if cart.CouponID != nil {
		coupon, err := s.couponRepo.FindByID(*cart.CouponID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cart references a missing coupon", map[string]interface{}{
					"coupon_id": *cart.CouponID,
				})
				return nil, &DiscountError{Subject: "coupon", Reason: DiscountReasonNotFound}
			}
			logger.Error("Failed to fetch coupon for resolution", err, map[string]interface{}{
				"coupon_id": *cart.CouponID,
			})
			return nil, err
		}
		if !coupon.IsValid(now) {
			logger.Warn("Cart references an expired coupon", map[string]interface{}{
				"coupon_id": coupon.ID,
				"valid_to":  coupon.ValidTo,
			})
			return nil, &DiscountError{Subject: "coupon", Reason: DiscountReasonExpired}
		}
		resolved.Coupon = coupon
	}

	if cart.GiftCardID != nil {
		card, err := s.giftCardRepo.FindByID(*cart.GiftCardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cart references a missing gift card", map[string]interface{}{
					"gift_card_id": *cart.GiftCardID,
				})
				return nil, &DiscountError{Subject: "gift card", Reason: DiscountReasonNotFound}
			}
			logger.Error("Failed to fetch gift card for resolution", err, map[string]interface{}{
				"gift_card_id": *cart.GiftCardID,
			})
			return nil, err
		}
		if !card.IsValid(now) {
			logger.Warn("Cart references an expired gift card", map[string]interface{}{
				"gift_card_id": card.ID,
				"valid_to":     card.ValidTo,
			})
			return nil, &DiscountError{Subject: "gift card", Reason: DiscountReasonExpired}
		}
		resolved.GiftCard = card
	}

	resolved.Totals = s.ResolveTotals(cart.RawTotal(), resolved.Coupon, resolved.GiftCard)
	return resolved, nil
}

func (s *discountService) ApplyCoupon(ctx context.Context, sessionID, code string) error {
	logger.Info("Applying coupon to cart", map[string]interface{}{
		"session_id": sessionID,
		"code":       code,
	})

	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		logger.Warn("Cannot apply coupon: cart is empty", map[string]interface{}{
			"session_id": sessionID,
		})
		return &DiscountError{Subject: "coupon", Reason: DiscountReasonEmptyCart}
	}

	coupon, err := s.couponRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Coupon code not found", map[string]interface{}{
				"code": code,
			})
			return &DiscountError{Subject: "coupon", Reason: DiscountReasonNotFound}
		}
		logger.Error("Failed to fetch coupon by code", err, map[string]interface{}{
			"code": code,
		})
		return err
	}

	if !coupon.IsValid(time.Now()) {
		logger.Warn("Coupon code is outside its validity window", map[string]interface{}{
			"coupon_id":  coupon.ID,
			"valid_from": coupon.ValidFrom,
			"valid_to":   coupon.ValidTo,
		})
		return &DiscountError{Subject: "coupon", Reason: DiscountReasonExpired}
	}

	cart.CouponID = &coupon.ID
	if err := s.cartRepo.Save(ctx, sessionID, cart); err != nil {
		return err
	}

	logger.Info("Coupon applied to cart", map[string]interface{}{
		"session_id": sessionID,
		"coupon_id":  coupon.ID,
		"discount":   coupon.Discount,
	})
	return nil
}

func (s *discountService) CancelCoupon(ctx context.Context, sessionID string) error {
	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if cart.CouponID == nil {
		return nil
	}

	couponID := *cart.CouponID
	cart.CouponID = nil
	if err := s.cartRepo.Save(ctx, sessionID, cart); err != nil {
		return err
	}

	logger.Info("Coupon removed from cart", map[string]interface{}{
		"session_id": sessionID,
		"coupon_id":  couponID,
	})
	return nil
}

// ApplyGiftCard attaches a gift card to the cart after winning the exclusive
// redemption hold. Two profiles racing for the same code are serialized by the
// conditional update in the repository: the loser gets already_used.
func (s *discountService) ApplyGiftCard(ctx context.Context, sessionID, code string, profileID uint) error {
	logger.Info("Applying gift card to cart", map[string]interface{}{
		"session_id": sessionID,
		"code":       code,
		"profile_id": profileID,
	})

	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		logger.Warn("Cannot apply gift card: cart is empty", map[string]interface{}{
			"session_id": sessionID,
		})
		return &DiscountError{Subject: "gift card", Reason: DiscountReasonEmptyCart}
	}

	card, err := s.giftCardRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Gift card code not found", map[string]interface{}{
				"code": code,
			})
			return &DiscountError{Subject: "gift card", Reason: DiscountReasonNotFound}
		}
		logger.Error("Failed to fetch gift card by code", err, map[string]interface{}{
			"code": code,
		})
		return err
	}

	if !card.IsValid(time.Now()) {
		logger.Warn("Gift card is outside its validity window", map[string]interface{}{
			"gift_card_id": card.ID,
			"valid_from":   card.ValidFrom,
			"valid_to":     card.ValidTo,
		})
		return &DiscountError{Subject: "gift card", Reason: DiscountReasonExpired}
	}

	if cart.GiftCardID != nil && *cart.GiftCardID == card.ID {
		return nil
	}

	// A card this profile already holds re-attaches without a new claim, so a
	// shopper who lost their session is not locked out of their own card.
	alreadyHeld := card.ProfileID != nil && *card.ProfileID == profileID
	if !alreadyHeld {
		won, err := s.giftCardRepo.Redeem(card.ID, profileID)
		if err != nil {
			return err
		}
		if !won {
			logger.Warn("Gift card redemption lost to another profile", map[string]interface{}{
				"gift_card_id": card.ID,
				"profile_id":   profileID,
			})
			return &DiscountError{Subject: "gift card", Reason: DiscountReasonAlreadyUsed}
		}
	}

	previousID := cart.GiftCardID
	cart.GiftCardID = &card.ID
	if err := s.cartRepo.Save(ctx, sessionID, cart); err != nil {
		// Release the fresh hold so a failed save does not strand the card.
		if !alreadyHeld {
			if relErr := s.giftCardRepo.Release(card.ID); relErr != nil {
				logger.Error("Failed to release gift card after save failure", relErr, map[string]interface{}{
					"gift_card_id": card.ID,
				})
			}
		}
		return err
	}

	if previousID != nil {
		if err := s.giftCardRepo.Release(*previousID); err != nil {
			logger.Error("Failed to release replaced gift card", err, map[string]interface{}{
				"gift_card_id": *previousID,
			})
		}
	}

	logger.Info("Gift card applied to cart", map[string]interface{}{
		"session_id":   sessionID,
		"gift_card_id": card.ID,
	})
	return nil
}

func (s *discountService) CancelGiftCard(ctx context.Context, sessionID string) error {
	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if cart.GiftCardID == nil {
		return nil
	}

	cardID := *cart.GiftCardID
	cart.GiftCardID = nil
	if err := s.cartRepo.Save(ctx, sessionID, cart); err != nil {
		return err
	}

	if err := s.giftCardRepo.Release(cardID); err != nil {
		logger.Error("Failed to release canceled gift card", err, map[string]interface{}{
			"gift_card_id": cardID,
		})
		return err
	}

	logger.Info("Gift card removed from cart", map[string]interface{}{
		"session_id":   sessionID,
		"gift_card_id": cardID,
	})
	return nil
}
