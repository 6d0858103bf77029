package repository

import (
	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	Update(order *model.Order) error
	MarkPaid(id uint, paymentIntentID string) (bool, error)
	MarkDone(id uint) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Product")
	}).Preload("Coupon").Preload("GiftCard").Preload("Delivery")
}

func (r *orderRepository) Create(order *model.Order) error {
	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id": order.UserID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return err
	}
	return nil
}

// MarkPaid flips the order to paid and stores the gateway's payment id.
// The UNPAID guard in the WHERE clause makes confirmation replays no-ops:
// the first caller sees rows affected, every replay gets false.
func (r *orderRepository) MarkPaid(id uint, paymentIntentID string) (bool, error) {
	result := r.db.Model(&model.Order{}).
		Where("id = ? AND is_paid = ?", id, false).
		Updates(map[string]interface{}{
			"is_paid":           true,
			"payment_intent_id": paymentIntentID,
		})
	if result.Error != nil {
		logger.Error("Failed to mark order paid in database", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepository) MarkDone(id uint) error {
	if err := r.db.Model(&model.Order{}).
		Where("id = ?", id).
		Update("is_done", true).Error; err != nil {
		logger.Error("Failed to mark order done in database", err, map[string]interface{}{
			"order_id": id,
		})
		return err
	}
	return nil
}
