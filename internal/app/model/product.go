package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID               uint             `gorm:"primarykey" json:"id"`
	Name             string           `gorm:"not null" json:"name"`
	Slug             string           `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string           `gorm:"type:text" json:"description"`
	Price            decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	Promotional      bool             `gorm:"default:false" json:"promotional"`
	PromotionalPrice *decimal.Decimal `gorm:"type:decimal(10,2)" json:"promotional_price,omitempty"`
	Category         string           `gorm:"type:varchar(50);index" json:"category"`
	Available        bool             `gorm:"default:true;index" json:"available"`
	ImageURL         string           `json:"image_url"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`

	OrderItems []OrderItem `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// CurrentPrice returns the promotional price while a promotion runs,
// otherwise the regular price. Cart lines snapshot this value at add time.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.Promotional && p.PromotionalPrice != nil {
		return *p.PromotionalPrice
	}
	return p.Price
}
