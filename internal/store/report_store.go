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

type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) Insert(ctx context.Context, report *models.Report) error {
	err := s.db.WithContext(ctx).Create(report).Error
	if isUniqueViolation(err) {
		return moderation.ErrDuplicateReport
	}
	return err
}

func (s *ReportStore) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderation.ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *ReportStore) Exists(ctx context.Context, reporterID uuid.UUID, contentType models.ContentType, dedupeKey string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_id = ? AND content_type = ? AND dedupe_key = ?", reporterID, contentType, dedupeKey).
		Count(&count).Error
	return count > 0, err
}

func (s *ReportStore) CountSince(ctx context.Context, reporterID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_id = ? AND created_at >= ?", reporterID, since).
		Count(&count).Error
	return count, err
}

// Transition moves a report between states with a conditional update so two
// concurrent admins cannot both win. Reopening starts a new resolution round.
func (s *ReportStore) Transition(ctx context.Context, id uuid.UUID, from []models.ReportState, to models.ReportState, adminID *uuid.UUID, at time.Time) (*models.Report, error) {
	result := transitionReport(s.db.WithContext(ctx), id, from, to, adminID, at)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, moderation.ErrStateConflict
	}
	return s.Get(ctx, id)
}

func transitionReport(tx *gorm.DB, id uuid.UUID, from []models.ReportState, to models.ReportState, adminID *uuid.UUID, at time.Time) *gorm.DB {
	updates := map[string]interface{}{
		"state":       to,
		"updated_at":  at,
		"resolved_by": nil,
		"resolved_at": nil,
	}
	if to == models.ReportOpen {
		updates["resolution_round"] = gorm.Expr("resolution_round + 1")
	} else {
		updates["resolved_by"] = adminID
		updates["resolved_at"] = at
	}

	return tx.Model(&models.Report{}).
		Where("id = ? AND state IN ?", id, from).
		Updates(updates)
}

func (s *ReportStore) List(ctx context.Context, state models.ReportState, limit, offset int) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if state != "" {
		query = query.Where("state = ?", state)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}
