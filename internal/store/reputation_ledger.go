package store

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReputationLedger struct {
	db *gorm.DB
}

func NewReputationLedger(db *gorm.DB) *ReputationLedger {
	return &ReputationLedger{db: db}
}

// Increment upserts the running score and journals the delta in one
// transaction.
func (l *ReputationLedger) Increment(ctx context.Context, userID uuid.UUID, delta int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertScore(tx, userID, delta).Error; err != nil {
			return err
		}
		return tx.Create(&models.ReputationEvent{ID: uuid.New(), UserID: userID, Delta: delta}).Error
	})
}

// upsertScore adds delta to the running score in a single statement.
func upsertScore(tx *gorm.DB, userID uuid.UUID, delta int) *gorm.DB {
	score := models.ReputationScore{UserID: userID, Score: delta}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score":      gorm.Expr("reputation_scores.score + ?", delta),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&score)
}
