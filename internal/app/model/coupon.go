package model

import (
	"time"

	"gorm.io/gorm"
)

// Coupon is a percentage-off discount code tied to a validity window.
// Validity is a pure function of the clock; there is no active flag to flip.
type Coupon struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`
	ValidFrom time.Time      `gorm:"not null" json:"valid_from"`
	ValidTo   time.Time      `gorm:"not null" json:"valid_to"`
	Discount  int            `gorm:"not null;check:discount >= 0 AND discount <= 100" json:"discount"`
	Category  string         `gorm:"type:varchar(50)" json:"category"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Orders []Order `gorm:"foreignKey:CouponID" json:"-"`
}

func (Coupon) TableName() string {
	return "coupons"
}

func (c *Coupon) IsValid(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}
