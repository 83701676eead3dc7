package attachments

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/storage"
)

const cleanerBatch = 100

// Cleaner retries queued blob deletions on a schedule.
type Cleaner struct {
	db        *gorm.DB
	store     storage.BlobStore
	log       *zap.Logger
	scheduler gocron.Scheduler
}

func NewCleaner(db *gorm.DB, store storage.BlobStore, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{db: db, store: store, log: log}
}

// Start runs RunOnce every interval until Stop is called.
func (c *Cleaner) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if _, err := c.RunOnce(ctx); err != nil {
				c.log.Error("blob cleanup run failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	c.scheduler = s
	s.Start()
	return nil
}

// Stop waits for a running job to finish.
func (c *Cleaner) Stop() error {
	if c.scheduler == nil {
		return nil
	}
	return c.scheduler.Shutdown()
}

// RunOnce retries one batch of pending deletions, oldest first, and returns how many were cleared.
func (c *Cleaner) RunOnce(ctx context.Context) (int, error) {
	var items []models.PendingBlobDeletion
	if err := c.db.WithContext(ctx).Order("updated_at asc").Limit(cleanerBatch).Find(&items).Error; err != nil {
		return 0, err
	}
	cleared := 0
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return cleared, err
		}
		delErr := c.store.Delete(ctx, it.Key)
		if delErr == nil || errors.Is(delErr, storage.ErrInvalidKey) {
			if err := c.db.WithContext(ctx).Delete(&models.PendingBlobDeletion{}, it.ID).Error; err != nil {
				c.log.Error("blob cleanup delete row failed", zap.Uint("id", it.ID), zap.Error(err))
				continue
			}
			cleared++
			continue
		}
		c.log.Warn("blob cleanup retry failed",
			zap.String("key", it.Key),
			zap.Int("attempts", it.Attempts+1),
			zap.Error(delErr))
		if err := c.db.WithContext(ctx).Model(&models.PendingBlobDeletion{}).Where("id = ?", it.ID).Updates(map[string]interface{}{
			"attempts":   it.Attempts + 1,
			"last_error": delErr.Error(),
			"updated_at": time.Now(),
		}).Error; err != nil {
			c.log.Error("blob cleanup update row failed", zap.Uint("id", it.ID), zap.Error(err))
		}
	}
	if cleared > 0 {
		c.log.Info("blob cleanup cleared pending deletions", zap.Int("count", cleared))
	}
	return cleared, nil
}
