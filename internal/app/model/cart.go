package model

import (
	"github.com/shopspring/decimal"
)

// CartLine is one product's entry in a session cart. UnitPrice is the price
// snapshot captured when the product was first added; it is never refreshed
// from the catalog for the life of the cart session.
type CartLine struct {
	ProductID uint            `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the session-scoped aggregate serialized to the session store.
// At most one coupon and one gift card may be referenced at a time, and an
// empty cart may reference neither: a discount with no subject is invalid.
type Cart struct {
	Lines      map[uint]CartLine `json:"lines"`
	CouponID   *uint             `json:"coupon_id,omitempty"`
	GiftCardID *uint             `json:"gift_card_id,omitempty"`
}

func NewCart() *Cart {
	return &Cart{Lines: make(map[uint]CartLine)}
}

// Add inserts a line with the given price snapshot, or overwrites the quantity
// of an existing line. The snapshot price of an existing line is kept as-is.
func (c *Cart) Add(productID uint, unitPrice decimal.Decimal, quantity int) {
	if quantity < 1 {
		return
	}
	if c.Lines == nil {
		c.Lines = make(map[uint]CartLine)
	}

	if line, ok := c.Lines[productID]; ok {
		if line.Quantity != quantity {
			line.Quantity = quantity
			c.Lines[productID] = line
		}
		return
	}

	c.Lines[productID] = CartLine{
		ProductID: productID,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
}

// Remove deletes the line if present; removing an absent product is a no-op.
// Emptying the cart also drops both discount references.
func (c *Cart) Remove(productID uint) {
	delete(c.Lines, productID)
	if len(c.Lines) == 0 {
		c.CouponID = nil
		c.GiftCardID = nil
	}
}

// Clear removes all lines and both discount references.
func (c *Cart) Clear() {
	c.Lines = make(map[uint]CartLine)
	c.CouponID = nil
	c.GiftCardID = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// TotalItemCount sums quantities across all lines.
func (c *Cart) TotalItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// DistinctLineCount returns the number of distinct products in the cart.
func (c *Cart) DistinctLineCount() int {
	return len(c.Lines)
}

// RawTotal is the undiscounted cart total over the snapshot prices.
func (c *Cart) RawTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Total())
	}
	return total
}
