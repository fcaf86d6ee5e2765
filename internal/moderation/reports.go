package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
)

// NewReport is what a reporter submits.
type NewReport struct {
	ReporterID     uuid.UUID
	ReportedUserID uuid.UUID
	ContentType    models.ContentType
	ContentID      *string
	Reason         string
	Body           string
}

// Reports enforces the report store rules on top of a ReportRepository:
// one report per reporter and content, and a sliding rate window per
// reporter.
type Reports struct {
	repo   ReportRepository
	locker Locker
	now    func() time.Time
}

func NewReports(repo ReportRepository, locker Locker, opts ...Option) *Reports {
	o := buildOptions(opts)
	return &Reports{repo: repo, locker: locker, now: o.now}
}

func (r *Reports) Create(ctx context.Context, in NewReport) (*models.Report, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.ContentID != nil {
		id := strings.TrimSpace(*in.ContentID)
		if id == "" {
			in.ContentID = nil
		} else {
			in.ContentID = &id
		}
	}

	switch {
	case in.ReporterID == uuid.Nil:
		return nil, invalid("reporter_id", "is required")
	case in.ReportedUserID == uuid.Nil:
		return nil, invalid("reported_user_id", "is required")
	case in.ReporterID == in.ReportedUserID:
		return nil, invalid("reported_user_id", "cannot report yourself")
	case !in.ContentType.Valid():
		return nil, invalid("content_type", "must be one of profile, song, video, chat_message, comment")
	case in.Reason == "":
		return nil, invalid("reason", "is required")
	}

	unlock, err := r.locker.Lock(ctx, reporterLockKey(in.ReporterID))
	if err != nil {
		return nil, dependency("lock reporter", err)
	}
	defer unlock()

	key := DedupeKey(in.ReportedUserID, in.ContentID)
	exists, err := r.repo.Exists(ctx, in.ReporterID, in.ContentType, key)
	if err != nil {
		return nil, dependency("check duplicate report", err)
	}
	if exists {
		return nil, ErrDuplicateReport
	}

	now := r.now().UTC()
	count, err := r.repo.CountSince(ctx, in.ReporterID, now.Add(-ReportRateWindow))
	if err != nil {
		return nil, dependency("count recent reports", err)
	}
	if count >= ReportRateLimit {
		return nil, ErrRateLimitExceeded
	}

	report := &models.Report{
		ID:             uuid.New(),
		ReporterID:     in.ReporterID,
		ReportedUserID: in.ReportedUserID,
		ContentType:    in.ContentType,
		ContentID:      in.ContentID,
		DedupeKey:      key,
		Reason:         in.Reason,
		Body:           in.Body,
		State:          models.ReportOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.repo.Insert(ctx, report); err != nil {
		return nil, dependency("insert report", err)
	}
	return report, nil
}

func (r *Reports) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, dependency("load report", err)
	}
	return report, nil
}

func (r *Reports) List(ctx context.Context, state models.ReportState, limit, offset int) ([]models.Report, int64, error) {
	reports, total, err := r.repo.List(ctx, state, limit, offset)
	if err != nil {
		return nil, 0, dependency("list reports", err)
	}
	return reports, total, nil
}

// Resolve marks an open report resolved. A second call fails with
// ErrAlreadyTerminal.
func (r *Reports) Resolve(ctx context.Context, id, adminID uuid.UUID) (*models.Report, error) {
	return r.transition(ctx, id, []models.ReportState{models.ReportOpen}, models.ReportResolved, &adminID, ErrAlreadyTerminal)
}

func (r *Reports) Dismiss(ctx context.Context, id, adminID uuid.UUID) (*models.Report, error) {
	return r.transition(ctx, id, []models.ReportState{models.ReportOpen}, models.ReportDismissed, &adminID, ErrAlreadyTerminal)
}

// Reopen is the manual override back to open.
func (r *Reports) Reopen(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return r.transition(ctx, id, []models.ReportState{models.ReportResolved, models.ReportDismissed}, models.ReportOpen, nil, ErrNotTerminal)
}

func (r *Reports) transition(ctx context.Context, id uuid.UUID, from []models.ReportState, to models.ReportState, adminID *uuid.UUID, conflict error) (*models.Report, error) {
	report, err := r.repo.Transition(ctx, id, from, to, adminID, r.now().UTC())
	if errors.Is(err, ErrStateConflict) {
		return nil, conflict
	}
	if err != nil {
		return nil, dependency("update report state", err)
	}
	return report, nil
}

// DedupeKey identifies the reported content. Content types without an id are
// keyed by the reported user.
func DedupeKey(reportedUserID uuid.UUID, contentID *string) string {
	if contentID != nil {
		return *contentID
	}
	return "user:" + reportedUserID.String()
}
