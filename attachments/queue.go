package attachments

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praxxy/backoffice/models"
)

// Queue remembers blob keys whose delete failed so they can be retried later.
type Queue interface {
	Enqueue(ctx context.Context, key, reason string, cause error) error
}

// DBQueue stores pending deletions in the pending_blob_deletions table.
type DBQueue struct {
	db *gorm.DB
}

func NewDBQueue(db *gorm.DB) *DBQueue {
	return &DBQueue{db: db}
}

// Enqueue adds key, or bumps the attempt count of the row already holding it.
func (q *DBQueue) Enqueue(ctx context.Context, key, reason string, cause error) error {
	row := models.PendingBlobDeletion{Key: key, Reason: reason}
	if cause != nil {
		row.LastError = cause.Error()
	}
	return q.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"reason":     row.Reason,
			"last_error": row.LastError,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}
