package logging

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"gorm.io/gorm"
)

// PurgeSystemLogs deletes system_logs rows older than the retention window.
func PurgeSystemLogs(ctx context.Context, db *gorm.DB, now time.Time, retentionDays int) (int64, error) {
	cutoff := now.AddDate(0, 0, -retentionDays)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
