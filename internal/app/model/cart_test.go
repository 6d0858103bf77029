package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCart_Add(t *testing.T) {
	cart := NewCart()

	cart.Add(1, decimal.NewFromFloat(120.20), 2)

	assert.Equal(t, 1, cart.DistinctLineCount())
	assert.Equal(t, 2, cart.TotalItemCount())
	assert.True(t, cart.Lines[1].UnitPrice.Equal(decimal.NewFromFloat(120.20)))
}

func TestCart_Add_OverwritesQuantityKeepsSnapshot(t *testing.T) {
	cart := NewCart()

	cart.Add(1, decimal.NewFromFloat(300.25), 1)
	cart.Add(1, decimal.NewFromFloat(999.99), 5)

	line := cart.Lines[1]
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromFloat(300.25)),
		"snapshot price must survive a quantity update")
	assert.Equal(t, 1, cart.DistinctLineCount())
}

func TestCart_Add_RejectsNonPositiveQuantity(t *testing.T) {
	cart := NewCart()

	cart.Add(1, decimal.NewFromFloat(10.00), 0)
	cart.Add(2, decimal.NewFromFloat(10.00), -3)

	assert.True(t, cart.IsEmpty())
}

func TestCart_Remove(t *testing.T) {
	cart := NewCart()
	cart.Add(1, decimal.NewFromFloat(120.20), 2)
	cart.Add(2, decimal.NewFromFloat(650.45), 1)

	cart.Remove(1)

	assert.Equal(t, 1, cart.DistinctLineCount())
	_, exists := cart.Lines[1]
	assert.False(t, exists)

	// removing something that was never added changes nothing
	cart.Remove(99)
	assert.Equal(t, 1, cart.DistinctLineCount())
}

func TestCart_Remove_LastLineDropsDiscounts(t *testing.T) {
	couponID := uint(7)
	cardID := uint(3)

	cart := NewCart()
	cart.Add(1, decimal.NewFromFloat(120.20), 1)
	cart.CouponID = &couponID
	cart.GiftCardID = &cardID

	cart.Remove(1)

	assert.True(t, cart.IsEmpty())
	assert.Nil(t, cart.CouponID)
	assert.Nil(t, cart.GiftCardID)
}

func TestCart_Clear(t *testing.T) {
	couponID := uint(7)

	cart := NewCart()
	cart.Add(1, decimal.NewFromFloat(120.20), 2)
	cart.Add(2, decimal.NewFromFloat(650.45), 1)
	cart.CouponID = &couponID

	cart.Clear()

	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.TotalItemCount())
	assert.Nil(t, cart.CouponID)
	assert.Nil(t, cart.GiftCardID)
}

func TestCart_RawTotal(t *testing.T) {
	cart := NewCart()
	cart.Add(1, decimal.NewFromFloat(300.25), 2)
	cart.Add(2, decimal.NewFromFloat(650.45), 1)

	assert.True(t, cart.RawTotal().Equal(decimal.NewFromFloat(1250.95)))
}

func TestCart_RawTotal_Empty(t *testing.T) {
	cart := NewCart()

	assert.True(t, cart.RawTotal().IsZero())
}
