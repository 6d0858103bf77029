package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/internal/db"
	"github.com/intshop/intshop-backend/pkg/kv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDiscountTest(t *testing.T) (*gorm.DB, repository.CartRepository, DiscountService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cartRepo := repository.NewCartRepository(kv.NewMemoryStore(), time.Hour)
	couponRepo := repository.NewCouponRepository(testDB)
	giftCardRepo := repository.NewGiftCardRepository(testDB)

	svc := NewDiscountService(cartRepo, couponRepo, giftCardRepo)
	return testDB, cartRepo, svc
}

func createTestCoupon(t *testing.T, testDB *gorm.DB, code string, discount int, validTo time.Time) *model.Coupon {
	coupon := &model.Coupon{
		Code:      code,
		ValidFrom: time.Now().Add(-24 * time.Hour),
		ValidTo:   validTo,
		Discount:  discount,
	}
	require.NoError(t, testDB.Create(coupon).Error)
	return coupon
}

func createTestGiftCard(t *testing.T, testDB *gorm.DB, code string, amount decimal.Decimal, validTo time.Time) *model.GiftCard {
	card := &model.GiftCard{
		Code:      code,
		ValidFrom: time.Now().Add(-24 * time.Hour),
		ValidTo:   validTo,
		Amount:    amount,
	}
	require.NoError(t, testDB.Create(card).Error)
	return card
}

func seedCartWithTotal(t *testing.T, cartRepo repository.CartRepository, sessionID string, total decimal.Decimal) *model.Cart {
	cart := model.NewCart()
	cart.Add(1, total, 1)
	require.NoError(t, cartRepo.Save(context.Background(), sessionID, cart))
	return cart
}

func TestDiscountService_ResolveTotals_NoDiscounts(t *testing.T) {
	_, _, svc := setupDiscountTest(t)

	totals := svc.ResolveTotals(decimal.NewFromInt(600), nil, nil)

	assert.True(t, totals.DiscountedTotal.Equal(decimal.NewFromInt(600)))
	assert.True(t, totals.TotalDiscount.IsZero())
}

func TestDiscountService_ResolveTotals_CouponAndGiftCard(t *testing.T) {
	_, _, svc := setupDiscountTest(t)

	coupon := &model.Coupon{Discount: 20}
	card := &model.GiftCard{Amount: decimal.NewFromInt(250)}

	totals := svc.ResolveTotals(decimal.NewFromInt(600), coupon, card)

	// 600 - 120 (20% of raw) - 250 = 230; both reductions off the raw total
	assert.True(t, totals.DiscountedTotal.Equal(decimal.NewFromInt(230)),
		"got %s", totals.DiscountedTotal)
	assert.True(t, totals.TotalDiscount.Equal(decimal.NewFromInt(370)))
	assert.True(t, totals.RawTotal.Equal(decimal.NewFromInt(600)))
}

func TestDiscountService_ResolveTotals_RoundsHalfUp(t *testing.T) {
	_, _, svc := setupDiscountTest(t)

	coupon := &model.Coupon{Discount: 15}

	// 100.15 * 0.85 = 85.1275, which rounds half-up to 85.13
	totals := svc.ResolveTotals(decimal.NewFromFloat(100.15), coupon, nil)

	assert.Equal(t, "85.13", totals.DiscountedTotal.StringFixed(2))
	assert.Equal(t, "15.02", totals.TotalDiscount.StringFixed(2))
}

func TestDiscountService_ResolveTotals_ClampsAtZero(t *testing.T) {
	_, _, svc := setupDiscountTest(t)

	card := &model.GiftCard{Amount: decimal.NewFromInt(500)}

	totals := svc.ResolveTotals(decimal.NewFromInt(120), nil, card)

	assert.True(t, totals.DiscountedTotal.IsZero())
	assert.True(t, totals.TotalDiscount.Equal(decimal.NewFromInt(120)),
		"the reported discount covers only what the cart was worth")
}

func TestDiscountService_ApplyCoupon(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	coupon := createTestCoupon(t, testDB, "WELCOME20", 20, time.Now().Add(24*time.Hour))
	seedCartWithTotal(t, cartRepo, "sess-1", decimal.NewFromInt(600))

	err := svc.ApplyCoupon(ctx, "sess-1", "WELCOME20")
	require.NoError(t, err)

	cart, err := cartRepo.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, cart.CouponID)
	assert.Equal(t, coupon.ID, *cart.CouponID)
}

func TestDiscountService_ApplyCoupon_EmptyCart(t *testing.T) {
	testDB, _, svc := setupDiscountTest(t)

	createTestCoupon(t, testDB, "WELCOME20", 20, time.Now().Add(24*time.Hour))

	err := svc.ApplyCoupon(context.Background(), "sess-empty", "WELCOME20")

	var discountErr *DiscountError
	require.ErrorAs(t, err, &discountErr)
	assert.Equal(t, DiscountReasonEmptyCart, discountErr.Reason)
}

func TestDiscountService_ApplyCoupon_UnknownCode(t *testing.T) {
	_, cartRepo, svc := setupDiscountTest(t)

	seedCartWithTotal(t, cartRepo, "sess-1", decimal.NewFromInt(100))

	err := svc.ApplyCoupon(context.Background(), "sess-1", "NOPE")

	var discountErr *DiscountError
	require.ErrorAs(t, err, &discountErr)
	assert.Equal(t, DiscountReasonNotFound, discountErr.Reason)
	assert.Equal(t, "coupon", discountErr.Subject)
}

func TestDiscountService_ApplyCoupon_Expired(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)

	createTestCoupon(t, testDB, "OLD10", 10, time.Now().Add(-time.Hour))
	seedCartWithTotal(t, cartRepo, "sess-1", decimal.NewFromInt(100))

	err := svc.ApplyCoupon(context.Background(), "sess-1", "OLD10")

	var discountErr *DiscountError
	require.ErrorAs(t, err, &discountErr)
	assert.Equal(t, DiscountReasonExpired, discountErr.Reason)
}

func TestDiscountService_ResolveCart_CouponExpiredSinceApplied(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	coupon := createTestCoupon(t, testDB, "SOON", 20, time.Now().Add(time.Hour))
	seedCartWithTotal(t, cartRepo, "sess-1", decimal.NewFromInt(600))
	require.NoError(t, svc.ApplyCoupon(ctx, "sess-1", "SOON"))

	// the window closes after the coupon was attached to the cart
	coupon.ValidTo = time.Now().Add(-time.Minute)
	require.NoError(t, testDB.Save(coupon).Error)

	cart, err := cartRepo.Load(ctx, "sess-1")
	require.NoError(t, err)

	_, err = svc.ResolveCart(cart)

	var discountErr *DiscountError
	require.ErrorAs(t, err, &discountErr)
	assert.Equal(t, DiscountReasonExpired, discountErr.Reason)
	assert.Equal(t, "coupon", discountErr.Subject)
}

func TestDiscountService_ResolveCart_WithBothDiscounts(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	createTestCoupon(t, testDB, "WELCOME20", 20, time.Now().Add(24*time.Hour))
	createTestGiftCard(t, testDB, "GIFT-250", decimal.NewFromInt(250), time.Now().Add(24*time.Hour))

	seedCartWithTotal(t, cartRepo, "sess-1", decimal.NewFromInt(600))
	require.NoError(t, svc.ApplyCoupon(ctx, "sess-1", "WELCOME20"))
	require.NoError(t, svc.ApplyGiftCard(ctx, "sess-1", "GIFT-250", 1))

	cart, err := cartRepo.Load(ctx, "sess-1")
	require.NoError(t, err)

	resolved, err := svc.ResolveCart(cart)
	require.NoError(t, err)

	assert.True(t, resolved.DiscountedTotal.Equal(decimal.NewFromInt(230)))
	require.NotNil(t, resolved.Coupon)
	require.NotNil(t, resolved.GiftCard)
}

func TestDiscountService_ApplyGiftCard_ExclusiveHold(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	card := createTestGiftCard(t, testDB, "GIFT-ONCE", decimal.NewFromInt(50), time.Now().Add(24*time.Hour))

	seedCartWithTotal(t, cartRepo, "sess-a", decimal.NewFromInt(100))
	seedCartWithTotal(t, cartRepo, "sess-b", decimal.NewFromInt(100))

	require.NoError(t, svc.ApplyGiftCard(ctx, "sess-a", "GIFT-ONCE", 1))

	err := svc.ApplyGiftCard(ctx, "sess-b", "GIFT-ONCE", 2)

	var discountErr *DiscountError
	require.ErrorAs(t, err, &discountErr)
	assert.Equal(t, DiscountReasonAlreadyUsed, discountErr.Reason)

	var stored model.GiftCard
	require.NoError(t, testDB.First(&stored, card.ID).Error)
	require.NotNil(t, stored.ProfileID)
	assert.Equal(t, uint(1), *stored.ProfileID)
}

func TestDiscountService_ApplyGiftCard_HolderCanReapply(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	card := createTestGiftCard(t, testDB, "GIFT-MINE", decimal.NewFromInt(50), time.Now().Add(24*time.Hour))

	seedCartWithTotal(t, cartRepo, "sess-old", decimal.NewFromInt(100))
	require.NoError(t, svc.ApplyGiftCard(ctx, "sess-old", "GIFT-MINE", 1))

	// same profile, fresh session after losing the old one
	seedCartWithTotal(t, cartRepo, "sess-new", decimal.NewFromInt(100))
	require.NoError(t, svc.ApplyGiftCard(ctx, "sess-new", "GIFT-MINE", 1))

	cart, err := cartRepo.Load(ctx, "sess-new")
	require.NoError(t, err)
	require.NotNil(t, cart.GiftCardID)
	assert.Equal(t, card.ID, *cart.GiftCardID)
}

func TestDiscountService_ApplyGiftCard_ConcurrentSingleWinner(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	createTestGiftCard(t, testDB, "GIFT-RACE", decimal.NewFromInt(50), time.Now().Add(24*time.Hour))

	const contenders = 8
	sessions := make([]string, contenders)
	for i := range sessions {
		sessions[i] = string(rune('a'+i)) + "-race"
		seedCartWithTotal(t, cartRepo, sessions[i], decimal.NewFromInt(100))
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.ApplyGiftCard(ctx, sessions[i], "GIFT-RACE", uint(i+1))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var discountErr *DiscountError
		require.ErrorAs(t, err, &discountErr)
		assert.Equal(t, DiscountReasonAlreadyUsed, discountErr.Reason)
	}
	assert.Equal(t, 1, winners)
}

func TestDiscountService_CancelGiftCard_ReleasesHold(t *testing.T) {
	testDB, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	card := createTestGiftCard(t, testDB, "GIFT-FREE", decimal.NewFromInt(50), time.Now().Add(24*time.Hour))

	seedCartWithTotal(t, cartRepo, "sess-1", decimal.NewFromInt(100))
	require.NoError(t, svc.ApplyGiftCard(ctx, "sess-1", "GIFT-FREE", 1))

	require.NoError(t, svc.CancelGiftCard(ctx, "sess-1"))

	cart, err := cartRepo.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, cart.GiftCardID)

	var stored model.GiftCard
	require.NoError(t, testDB.First(&stored, card.ID).Error)
	assert.Nil(t, stored.ProfileID, "cancel frees the card for another profile")
}

func TestDiscountService_CancelCoupon_Idempotent(t *testing.T) {
	_, cartRepo, svc := setupDiscountTest(t)
	ctx := context.Background()

	seedCartWithTotal(t, cartRepo, "sess-1", decimal.NewFromInt(100))

	assert.NoError(t, svc.CancelCoupon(ctx, "sess-1"))
	assert.NoError(t, svc.CancelCoupon(ctx, "sess-1"))
}
