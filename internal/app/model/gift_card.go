package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GiftCard is a fixed-amount-off discount code. ProfileID marks the exclusive
// redemption hold: set when a profile applies the card, cleared on cancel.
type GiftCard struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Code      string          `gorm:"uniqueIndex;not null" json:"code"`
	ValidFrom time.Time       `gorm:"not null" json:"valid_from"`
	ValidTo   time.Time       `gorm:"not null" json:"valid_to"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Category  string          `gorm:"type:varchar(50)" json:"category"`
	FromName  string          `json:"from_name"`
	FromEmail string          `json:"from_email"`
	ToName    string          `json:"to_name"`
	ToEmail   string          `json:"to_email"`
	Message   string          `gorm:"type:text" json:"message"`
	ProfileID *uint           `gorm:"index" json:"profile_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`

	Profile *User `gorm:"foreignKey:ProfileID" json:"-"`
}

func (GiftCard) TableName() string {
	return "gift_cards"
}

func (g *GiftCard) IsValid(now time.Time) bool {
	return !now.Before(g.ValidFrom) && !now.After(g.ValidTo)
}
