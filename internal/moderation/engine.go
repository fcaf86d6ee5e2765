package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
)

// SanctionRequest describes one sanction to apply. DurationDays is required
// for temporary suspensions and forbidden otherwise.
type SanctionRequest struct {
	UserID       uuid.UUID
	Type         models.SanctionType
	Reason       string
	AdminID      uuid.UUID
	DurationDays *int
	ReportID     *uuid.UUID
	ReportRound  int
}

func (r SanctionRequest) Validate() error {
	switch {
	case r.UserID == uuid.Nil:
		return invalid("user_id", "is required")
	case r.AdminID == uuid.Nil:
		return invalid("admin_id", "is required")
	case !r.Type.Valid():
		return invalid("type", "must be one of warning, temporary_suspension, permanent_suspension")
	case strings.TrimSpace(r.Reason) == "":
		return invalid("reason", "is required")
	}
	if r.Type == models.SanctionTemporarySuspension {
		if r.DurationDays == nil {
			return invalid("duration_days", "is required for temporary suspensions")
		}
		if *r.DurationDays <= 0 {
			return invalid("duration_days", "must be positive")
		}
	} else if r.DurationDays != nil {
		return invalid("duration_days", "is only allowed for temporary suspensions")
	}
	return nil
}

// Engine applies sanctions and owns the warning escalation rule. All state
// changes for a user run under that user's lock.
type Engine struct {
	ledger   SanctionLedger
	notifier NotificationDispatcher
	content  ContentGateway
	locker   Locker
	now      func() time.Time
}

func NewEngine(ledger SanctionLedger, notifier NotificationDispatcher, content ContentGateway, locker Locker, opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		ledger:   ledger,
		notifier: notifier,
		content:  content,
		locker:   locker,
		now:      o.now,
	}
}

// ApplySanction records a sanction and runs its consequences. When the
// sanction is a warning that brings the user to the escalation threshold, all
// active warnings (this one included) are fulfilled and a temporary
// suspension is applied through the same code path. The returned record
// reflects that: an absorbed warning comes back fulfilled.
//
// The writes commit together. If any of them fails nothing is recorded and no
// consequence runs.
func (e *Engine) ApplySanction(ctx context.Context, req SanctionRequest) (*models.Sanction, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	unlock, err := e.locker.Lock(ctx, userLockKey(req.UserID))
	if err != nil {
		return nil, dependency("lock user", err)
	}
	defer unlock()

	var applied []appliedSanction
	err = e.ledger.WithinTx(ctx, func(tx SanctionLedger) error {
		var err error
		applied, err = e.record(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, dependency("commit sanction", err)
	}

	for _, a := range applied {
		e.consequences(ctx, a.req, a.sanction)
	}
	return applied[len(applied)-1].sanction, nil
}

type appliedSanction struct {
	req      SanctionRequest
	sanction *models.Sanction
}

// record writes req through ledger. An escalating warning recurses once for
// the suspension it triggers. The result lists every written sanction in the
// order its consequences run, the requested one last.
func (e *Engine) record(ctx context.Context, ledger SanctionLedger, req SanctionRequest) ([]appliedSanction, error) {
	start := e.now().UTC()
	sanction := &models.Sanction{
		ID:          uuid.New(),
		UserID:      req.UserID,
		AdminID:     req.AdminID,
		Type:        req.Type,
		Reason:      req.Reason,
		StartsAt:    start,
		State:       models.SanctionActive,
		ReportID:    req.ReportID,
		ReportRound: req.ReportRound,
	}
	if req.Type == models.SanctionTemporarySuspension {
		days := *req.DurationDays
		end := SuspensionEnd(start, days)
		sanction.DurationDays = &days
		sanction.EndsAt = &end
	}

	if err := ledger.Insert(ctx, sanction); err != nil {
		return nil, dependency("insert sanction", err)
	}
	self := appliedSanction{req: req, sanction: sanction}

	if req.Type != models.SanctionWarning {
		return []appliedSanction{self}, nil
	}
	active, err := ledger.CountActive(ctx, req.UserID, models.SanctionWarning)
	if err != nil {
		return nil, dependency("count active warnings", err)
	}
	if !ShouldEscalate(active) {
		return []appliedSanction{self}, nil
	}

	fulfilled, err := ledger.FulfillActive(ctx, req.UserID, models.SanctionWarning)
	if err != nil {
		return nil, dependency("fulfill warnings", err)
	}
	sanction.State = models.SanctionFulfilled

	days := Escalation.DurationDays
	escalated, err := e.record(ctx, ledger, SanctionRequest{
		UserID:       req.UserID,
		Type:         Escalation.Type,
		Reason:       Escalation.Reason,
		AdminID:      req.AdminID,
		DurationDays: &days,
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "warnings escalated",
		"user_id", req.UserID.String(),
		"sanction_id", sanction.ID.String(),
		"fulfilled", fulfilled,
	)
	return append(escalated, self), nil
}

// consequences runs the best-effort side effects of a committed sanction.
func (e *Engine) consequences(ctx context.Context, req SanctionRequest, sanction *models.Sanction) {
	if req.Type.Suspends() {
		bestEffort(ctx, "set_profile_suspended",
			e.content.SetProfileSuspended(ctx, req.UserID, true),
			"user_id", req.UserID.String(), "sanction_id", sanction.ID.String())
	}

	adminID := req.AdminID
	e.notify(ctx, Notification{
		UserID:  req.UserID,
		Type:    SanctionNotificationType(req.Type),
		Message: SanctionMessage(req.Type, req.Reason),
		AdminID: &adminID,
	})

	slog.InfoContext(ctx, "sanction applied",
		"user_id", req.UserID.String(),
		"sanction_id", sanction.ID.String(),
		"type", string(req.Type),
		"state", string(sanction.State),
	)
}

// RevokeSanction undoes an active sanction. The suspended flag is lifted once
// no active suspension remains.
func (e *Engine) RevokeSanction(ctx context.Context, sanctionID, adminID uuid.UUID) (*models.Sanction, error) {
	current, err := e.ledger.Get(ctx, sanctionID)
	if err != nil {
		return nil, dependency("load sanction", err)
	}

	unlock, err := e.locker.Lock(ctx, userLockKey(current.UserID))
	if err != nil {
		return nil, dependency("lock user", err)
	}
	defer unlock()

	revoked, err := e.ledger.Transition(ctx, sanctionID, models.SanctionActive, models.SanctionRevoked)
	if errors.Is(err, ErrStateConflict) {
		return nil, ErrAlreadyTerminal
	}
	if err != nil {
		return nil, dependency("revoke sanction", err)
	}

	if revoked.Type.Suspends() {
		e.liftSuspensionIfClear(ctx, revoked.UserID)
	}
	e.notify(ctx, Notification{
		UserID:  revoked.UserID,
		Type:    NotifySanctionRevoked,
		Message: SanctionRevokedMessage,
		AdminID: &adminID,
	})
	return revoked, nil
}

// ExpireDue fulfills every active temporary suspension that ended before now.
// It is driven by the scheduler, not by the moderation pipeline.
func (e *Engine) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := e.ledger.ListExpired(ctx, now)
	if err != nil {
		return 0, dependency("list expired sanctions", err)
	}

	expired := 0
	for i := range due {
		err := e.expire(ctx, &due[i])
		if errors.Is(err, ErrAlreadyTerminal) {
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (e *Engine) expire(ctx context.Context, s *models.Sanction) error {
	unlock, err := e.locker.Lock(ctx, userLockKey(s.UserID))
	if err != nil {
		return dependency("lock user", err)
	}
	defer unlock()

	if _, err := e.ledger.Transition(ctx, s.ID, models.SanctionActive, models.SanctionFulfilled); err != nil {
		if errors.Is(err, ErrStateConflict) {
			return ErrAlreadyTerminal
		}
		return dependency("fulfill expired sanction", err)
	}
	e.liftSuspensionIfClear(ctx, s.UserID)
	return nil
}

func (e *Engine) liftSuspensionIfClear(ctx context.Context, userID uuid.UUID) {
	suspended, err := e.ledger.HasActiveSuspension(ctx, userID)
	if err != nil {
		bestEffort(ctx, "check_active_suspension", err, "user_id", userID.String())
		return
	}
	if suspended {
		return
	}
	bestEffort(ctx, "clear_profile_suspended",
		e.content.SetProfileSuspended(ctx, userID, false),
		"user_id", userID.String())
}

func (e *Engine) UserSanctions(ctx context.Context, userID uuid.UUID) ([]models.Sanction, error) {
	sanctions, err := e.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, dependency("list sanctions", err)
	}
	return sanctions, nil
}

// SanctionForReport returns the sanction a report produced in the given
// resolution round, or nil.
func (e *Engine) SanctionForReport(ctx context.Context, reportID uuid.UUID, round int) (*models.Sanction, error) {
	sanction, err := e.ledger.FindByReport(ctx, reportID, round)
	if err != nil {
		return nil, dependency("find report sanction", err)
	}
	return sanction, nil
}

func (e *Engine) notify(ctx context.Context, n Notification) {
	bestEffort(ctx, "notify", e.notifier.Notify(ctx, n),
		"user_id", n.UserID.String(), "type", n.Type)
}
