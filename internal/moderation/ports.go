package moderation

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
)

// ReportRepository persists reports. Get and Transition return
// ErrReportNotFound for unknown ids; Transition returns ErrStateConflict when
// the report is not in one of the from states. Insert returns
// ErrDuplicateReport when the dedupe index rejects the row.
type ReportRepository interface {
	Insert(ctx context.Context, report *models.Report) error
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
	Exists(ctx context.Context, reporterID uuid.UUID, contentType models.ContentType, dedupeKey string) (bool, error)
	CountSince(ctx context.Context, reporterID uuid.UUID, since time.Time) (int64, error)
	Transition(ctx context.Context, id uuid.UUID, from []models.ReportState, to models.ReportState, adminID *uuid.UUID, at time.Time) (*models.Report, error)
	List(ctx context.Context, state models.ReportState, limit, offset int) ([]models.Report, int64, error)
}

// SanctionLedger persists sanctions. Get and Transition return
// ErrSanctionNotFound for unknown ids and Transition returns ErrStateConflict
// when the sanction is not in the from state. FindByReport returns nil, nil
// when the report has no sanction for that resolution round.
//
// WithinTx runs fn against a ledger bound to one transaction: every write fn
// makes commits together, or none does when fn returns an error.
type SanctionLedger interface {
	WithinTx(ctx context.Context, fn func(tx SanctionLedger) error) error
	Insert(ctx context.Context, sanction *models.Sanction) error
	Get(ctx context.Context, id uuid.UUID) (*models.Sanction, error)
	CountActive(ctx context.Context, userID uuid.UUID, sanctionType models.SanctionType) (int64, error)
	FulfillActive(ctx context.Context, userID uuid.UUID, sanctionType models.SanctionType) (int64, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.SanctionState) (*models.Sanction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Sanction, error)
	FindByReport(ctx context.Context, reportID uuid.UUID, round int) (*models.Sanction, error)
	HasActiveSuspension(ctx context.Context, userID uuid.UUID) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Sanction, error)
}

// ReputationLedger applies signed deltas atomically.
type ReputationLedger interface {
	Increment(ctx context.Context, userID uuid.UUID, delta int) error
}

// Notification is the content of an in-app message. Persistence and push
// delivery belong to the dispatcher.
type Notification struct {
	UserID    uuid.UUID
	Type      string
	Message   string
	AdminID   *uuid.UUID
	ContentID *string
}

type NotificationDispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// ContentGateway removes moderated content and toggles the profile-level
// suspended flag. DeleteContent reports false with a nil error when the
// content is already gone.
type ContentGateway interface {
	DeleteContent(ctx context.Context, contentType models.ContentType, contentID string) (bool, error)
	SetProfileSuspended(ctx context.Context, userID uuid.UUID, suspended bool) error
}

// Locker serializes work per key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
