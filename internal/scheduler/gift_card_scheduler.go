package scheduler

import (
	"time"

	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// GiftCardScheduler frees redemption holds on gift cards whose validity window
// lapsed before the cart ever became an order.
type GiftCardScheduler struct {
	cron         *cron.Cron
	giftCardRepo repository.GiftCardRepository
}

func NewGiftCardScheduler(giftCardRepo repository.GiftCardRepository) *GiftCardScheduler {
	return &GiftCardScheduler{
		cron:         cron.New(),
		giftCardRepo: giftCardRepo,
	}
}

// Start schedules the nightly sweep at 03:00.
func (s *GiftCardScheduler) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		logger.Info("Starting gift card hold sweep", nil)

		released, err := s.giftCardRepo.ReleaseLapsedHolds(time.Now())
		if err != nil {
			logger.Error("Gift card hold sweep failed", err)
			return
		}

		logger.Info("Gift card hold sweep completed", map[string]interface{}{
			"released": released,
		})
	})
	if err != nil {
		logger.Error("Failed to add cron job for gift card sweep", err)
		return err
	}

	s.cron.Start()
	logger.Info("Gift card scheduler started successfully (daily at 3:00 AM)", nil)
	return nil
}

// Stop halts the scheduler.
func (s *GiftCardScheduler) Stop() {
	logger.Info("Stopping gift card scheduler...", nil)
	s.cron.Stop()
	logger.Info("Gift card scheduler stopped", nil)
}
