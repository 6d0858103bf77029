package repository

import (
	"time"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type GiftCardRepository interface {
	Create(card *model.GiftCard) error
	FindByID(id uint) (*model.GiftCard, error)
	FindByCode(code string) (*model.GiftCard, error)
	Redeem(id, profileID uint) (bool, error)
	Release(id uint) error
	ReleaseLapsedHolds(now time.Time) (int64, error)
}

type giftCardRepository struct {
	db *gorm.DB
}

func NewGiftCardRepository(db *gorm.DB) GiftCardRepository {
	return &giftCardRepository{db: db}
}

func (r *giftCardRepository) Create(card *model.GiftCard) error {
	if err := r.db.Create(card).Error; err != nil {
		logger.Error("Failed to create gift card in database", err, map[string]interface{}{
			"code": card.Code,
		})
		return err
	}
	return nil
}

func (r *giftCardRepository) FindByID(id uint) (*model.GiftCard, error) {
	var card model.GiftCard
	if err := r.db.First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *giftCardRepository) FindByCode(code string) (*model.GiftCard, error) {
	var card model.GiftCard
	if err := r.db.Where("code = ?", code).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// Redeem atomically claims the card for a profile. The conditional UPDATE
// serializes racing redemptions in the database: exactly one caller sees
// rows affected, the rest get false.
func (r *giftCardRepository) Redeem(id, profileID uint) (bool, error) {
	result := r.db.Model(&model.GiftCard{}).
		Where("id = ? AND profile_id IS NULL", id).
		Update("profile_id", profileID)
	if result.Error != nil {
		logger.Error("Failed to redeem gift card", result.Error, map[string]interface{}{
			"gift_card_id": id,
			"profile_id":   profileID,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Release drops the redemption hold so the card can be applied again.
func (r *giftCardRepository) Release(id uint) error {
	if err := r.db.Model(&model.GiftCard{}).
		Where("id = ?", id).
		Update("profile_id", nil).Error; err != nil {
		logger.Error("Failed to release gift card", err, map[string]interface{}{
			"gift_card_id": id,
		})
		return err
	}
	return nil
}

// ReleaseLapsedHolds frees cards that were applied to a cart but never made it
// into an order before their validity window closed. Cards referenced by an
// order keep their hold: those were consumed, not abandoned.
func (r *giftCardRepository) ReleaseLapsedHolds(now time.Time) (int64, error) {
	consumed := r.db.Model(&model.Order{}).
		Select("gift_card_id").
		Where("gift_card_id IS NOT NULL")

	result := r.db.Model(&model.GiftCard{}).
		Where("profile_id IS NOT NULL AND valid_to < ?", now).
		Where("id NOT IN (?)", consumed).
		Update("profile_id", nil)
	if result.Error != nil {
		logger.Error("Failed to release lapsed gift card holds", result.Error, nil)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
