package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SanctionLedger struct {
	db *gorm.DB
}

func NewSanctionLedger(db *gorm.DB) *SanctionLedger {
	return &SanctionLedger{db: db}
}

// WithinTx binds a ledger to one gorm transaction. Nested calls become
// savepoints.
func (l *SanctionLedger) WithinTx(ctx context.Context, fn func(tx moderation.SanctionLedger) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SanctionLedger{db: tx})
	})
}

func (l *SanctionLedger) Insert(ctx context.Context, sanction *models.Sanction) error {
	return l.db.WithContext(ctx).Create(sanction).Error
}

func (l *SanctionLedger) Get(ctx context.Context, id uuid.UUID) (*models.Sanction, error) {
	var sanction models.Sanction
	if err := l.db.WithContext(ctx).Where("id = ?", id).First(&sanction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderation.ErrSanctionNotFound
		}
		return nil, err
	}
	return &sanction, nil
}

func (l *SanctionLedger) CountActive(ctx context.Context, userID uuid.UUID, sanctionType models.SanctionType) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Sanction{}).
		Where("user_id = ? AND type = ? AND state = ?", userID, sanctionType, models.SanctionActive).
		Count(&count).Error
	return count, err
}

func (l *SanctionLedger) FulfillActive(ctx context.Context, userID uuid.UUID, sanctionType models.SanctionType) (int64, error) {
	result := fulfillActive(l.db.WithContext(ctx), userID, sanctionType)
	return result.RowsAffected, result.Error
}

func (l *SanctionLedger) Transition(ctx context.Context, id uuid.UUID, from, to models.SanctionState) (*models.Sanction, error) {
	result := transitionSanction(l.db.WithContext(ctx), id, from, to)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := l.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, moderation.ErrStateConflict
	}
	return l.Get(ctx, id)
}

func (l *SanctionLedger) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Sanction, error) {
	var sanctions []models.Sanction
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&sanctions).Error
	return sanctions, err
}

func (l *SanctionLedger) FindByReport(ctx context.Context, reportID uuid.UUID, round int) (*models.Sanction, error) {
	var sanctions []models.Sanction
	if err := findByReport(l.db.WithContext(ctx), reportID, round, &sanctions).Error; err != nil {
		return nil, err
	}
	if len(sanctions) == 0 {
		return nil, nil
	}
	return &sanctions[0], nil
}

func (l *SanctionLedger) HasActiveSuspension(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Sanction{}).
		Where("user_id = ? AND state = ? AND type IN ?", userID, models.SanctionActive,
			[]models.SanctionType{models.SanctionTemporarySuspension, models.SanctionPermanentSuspension}).
		Count(&count).Error
	return count > 0, err
}

func (l *SanctionLedger) ListExpired(ctx context.Context, now time.Time) ([]models.Sanction, error) {
	var sanctions []models.Sanction
	err := l.db.WithContext(ctx).
		Where("state = ? AND type = ? AND ends_at IS NOT NULL AND ends_at <= ?",
			models.SanctionActive, models.SanctionTemporarySuspension, now).
		Order("ends_at ASC").
		Find(&sanctions).Error
	return sanctions, err
}

func fulfillActive(tx *gorm.DB, userID uuid.UUID, sanctionType models.SanctionType) *gorm.DB {
	return tx.Model(&models.Sanction{}).
		Where("user_id = ? AND type = ? AND state = ?", userID, sanctionType, models.SanctionActive).
		Update("state", models.SanctionFulfilled)
}

func transitionSanction(tx *gorm.DB, id uuid.UUID, from, to models.SanctionState) *gorm.DB {
	return tx.Model(&models.Sanction{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
}

func findByReport(tx *gorm.DB, reportID uuid.UUID, round int, dest *[]models.Sanction) *gorm.DB {
	return tx.Where("report_id = ? AND report_round = ?", reportID, round).
		Order("created_at ASC").
		Limit(1).
		Find(dest)
}
