package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PayMethod string

const (
	PayMethodOnline       PayMethod = "Online"
	PayMethodOnDelivery   PayMethod = "On delivery"
	PayMethodInstallments PayMethod = "Installments"
)

type DeliveryMethod string

const (
	DeliverySelf       DeliveryMethod = "Self-delivery"
	DeliveryPostOffice DeliveryMethod = "Post office"
	DeliveryApartment  DeliveryMethod = "Apartment"
)

type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	FirstName       string         `gorm:"not null" json:"first_name"`
	LastName        string         `gorm:"not null" json:"last_name"`
	Email           string         `gorm:"not null" json:"email"`
	Phone           string         `gorm:"not null" json:"phone"`
	Address         string         `json:"address"`
	Comment         string         `gorm:"type:text" json:"comment"`
	CallConfirm     bool           `gorm:"default:false" json:"call_confirm"`
	PayMethod       PayMethod      `gorm:"type:varchar(20);not null" json:"pay_method"`
	IsPaid          bool           `gorm:"default:false;index" json:"is_paid"`
	IsDone          bool           `gorm:"default:false" json:"is_done"`
	CouponID        *uint          `gorm:"index" json:"coupon_id,omitempty"`
	GiftCardID      *uint          `gorm:"uniqueIndex" json:"gift_card_id,omitempty"`
	DeliveryID      *uint          `gorm:"uniqueIndex" json:"delivery_id,omitempty"`
	PaymentIntentID string         `gorm:"type:varchar(255);index" json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User       User        `gorm:"foreignKey:UserID" json:"-"`
	Coupon     *Coupon     `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	GiftCard   *GiftCard   `gorm:"foreignKey:GiftCardID" json:"gift_card,omitempty"`
	Delivery   *Delivery   `gorm:"foreignKey:DeliveryID" json:"delivery,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// RawTotal sums item cost over the order's immutable snapshot prices.
func (o *Order) RawTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.Cost())
	}
	return total
}

type Delivery struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	FirstName    string         `gorm:"not null" json:"first_name"`
	LastName     string         `gorm:"not null" json:"last_name"`
	Method       DeliveryMethod `gorm:"type:varchar(20);not null" json:"method"`
	Service      string         `gorm:"type:varchar(30)" json:"service"`
	OfficeNumber *int           `json:"office_number,omitempty"`
	DeliveryDate time.Time      `gorm:"not null" json:"delivery_date"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Delivery) TableName() string {
	return "deliveries"
}

// OrderItem is immutable after creation: Price is the cart's snapshot price,
// never the live catalog price, so the order's historical total cannot drift.
type OrderItem struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`

	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
