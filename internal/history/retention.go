package history

import (
	"context"
	"time"

	"github.com/picklesmaker/pickles/internal/models"
	"github.com/picklesmaker/pickles/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultRetentionInterval = 12 * time.Hour
	defaultDeleteBatchSize   = 1000
	maxDeleteBatchesPerRun   = 500
)

// RetentionCleaner prunes history entries older than HISTORY_RETENTION_DAYS.
type RetentionCleaner struct {
	db        *gorm.DB
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewRetentionCleaner builds a cleaner; nil db yields nil.
func NewRetentionCleaner(db *gorm.DB) *RetentionCleaner {
	if db == nil {
		return nil
	}
	return &RetentionCleaner{
		db:        db,
		interval:  defaultRetentionInterval,
		batchSize: defaultDeleteBatchSize,
		now:       time.Now,
	}
}

// Start launches the cleanup loop in a background goroutine.
func (c *RetentionCleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go c.run(ctx)
	log.WithField("interval", c.interval).Info("history retention: cleaner started")
}

func (c *RetentionCleaner) run(ctx context.Context) {
	c.CleanupOnce(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanupOnce(ctx)
		}
	}
}

// CleanupOnce deletes expired entries in batches and returns how many were
// removed. The newest entry of every row is kept however old it is, unless
// it records the row's deletion, so each live catalog row stays attributed.
func (c *RetentionCleaner) CleanupOnce(ctx context.Context) int64 {
	if c == nil || c.db == nil {
		return 0
	}
	retentionDays := settings.HistoryRetentionDays()
	if retentionDays <= 0 {
		return 0
	}
	cutoff := c.now().UTC().AddDate(0, 0, -retentionDays)

	var deletedTotal int64
	for batch := 0; batch < maxDeleteBatchesPerRun && ctx.Err() == nil; batch++ {
		n, err := c.deleteBatch(ctx, cutoff)
		if err != nil {
			log.WithError(err).Warn("history retention: delete batch failed")
			break
		}
		if n == 0 {
			break
		}
		deletedTotal += n
	}
	if deletedTotal > 0 {
		log.WithFields(log.Fields{
			"deleted":        deletedTotal,
			"cutoff":         cutoff.Format(time.RFC3339),
			"retention_days": retentionDays,
		}).Info("history retention: pruned entries")
	}
	return deletedTotal
}

// deleteBatch removes up to batchSize expired entries, oldest first.
func (c *RetentionCleaner) deleteBatch(ctx context.Context, cutoff time.Time) (int64, error) {
	limit := c.batchSize
	if limit <= 0 {
		limit = defaultDeleteBatchSize
	}
	tx := c.db.WithContext(ctx)
	newest := tx.Model(&models.HistoryEntry{}).Select("MAX(id)").Group("entity, entity_id")
	protected := tx.Model(&models.HistoryEntry{}).Select("id").
		Where("id IN (?)", newest).
		Where("action <> ?", models.HistoryActionDelete)
	expired := tx.Model(&models.HistoryEntry{}).Select("id").
		Where("created_at < ?", cutoff).
		Where("id NOT IN (?)", protected).
		Order("id ASC").
		Limit(limit)
	res := tx.Where("id IN (?)", expired).Delete(&models.HistoryEntry{})
	return res.RowsAffected, res.Error
}
