package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/metrics"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/repository"

	"gorm.io/gorm"
)

const defaultSweepBatchSize = 100

// SweepResult 到期扫描结果
type SweepResult struct {
	Scanned int `json:"scanned"`
	Demoted int `json:"demoted"`
}

// PromotionExpiryService 推广到期扫描服务
type PromotionExpiryService struct {
	db          *gorm.DB
	listingRepo repository.ListingRepository
	notifySvc   *NotificationService
	batchSize   int
}

// NewPromotionExpiryService 创建推广到期扫描服务
func NewPromotionExpiryService(db *gorm.DB, listingRepo repository.ListingRepository, notifySvc *NotificationService, batchSize int) *PromotionExpiryService {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &PromotionExpiryService{
		db:          db,
		listingRepo: listingRepo,
		notifySvc:   notifySvc,
		batchSize:   batchSize,
	}
}

// Sweep 降级所有在 now 之前到期的推广，写入时复核到期时间，可重复执行
func (s *PromotionExpiryService) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{}
	afterID := uint(0)
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch, err := s.listingRepo.ListExpiredPromotions(now, afterID, s.batchSize)
		if err != nil {
			metrics.SweepRuns.WithLabelValues("error").Inc()
			return result, err
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			listing := batch[i]
			afterID = listing.ID
			result.Scanned++
			demoted, err := s.demote(ctx, &listing, now)
			if err != nil {
				logger.FromContext(ctx).Warnw("promotion_sweep_demote_failed",
					"listing_id", listing.ID,
					"error", err,
				)
				continue
			}
			if demoted {
				result.Demoted++
			}
		}
		if len(batch) < s.batchSize {
			break
		}
	}
	metrics.SweepRuns.WithLabelValues("ok").Inc()
	metrics.SweepDemotions.Add(float64(result.Demoted))
	logger.FromContext(ctx).Infow("promotion_sweep_finished",
		"scanned", result.Scanned,
		"demoted", result.Demoted,
	)
	return result, nil
}

func (s *PromotionExpiryService) demote(ctx context.Context, listing *models.Listing, now time.Time) (bool, error) {
	var notification *models.Notification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.listingRepo.WithTx(tx).ClearExpiredPromotion(listing.ID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		notification, err = s.notifySvc.EnqueueInTx(tx, NotificationInput{
			UserID:    listing.OwnerID,
			Kind:      constants.NotificationKindPromotionExpired,
			Title:     "推广已到期",
			Body:      fmt.Sprintf("信息《%s》的推广已到期，已恢复为普通展示", listing.Title),
			RelatedID: listing.ID,
		})
		return err
	})
	if err != nil {
		return false, err
	}
	if notification == nil {
		return false, nil
	}
	s.notifySvc.Publish(ctx, notification)
	return true, nil
}
