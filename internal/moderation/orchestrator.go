package moderation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
)

// ResolveRequest is an administrator's verdict on a report.
type ResolveRequest struct {
	ReportID     uuid.UUID
	SanctionType models.SanctionType
	Reason       string
	DurationDays *int
	AdminID      uuid.UUID
	PurgeContent bool
}

type Resolution struct {
	Report        *models.Report   `json:"report"`
	Sanction      *models.Sanction `json:"sanction"`
	ContentPurged bool             `json:"content_purged"`
}

// Orchestrator drives report resolution end to end. Steps run sequentially;
// persistence failures abort, notification and content purge failures are
// logged and swallowed.
type Orchestrator struct {
	reports    *Reports
	engine     *Engine
	reputation ReputationLedger
	notifier   NotificationDispatcher
	content    ContentGateway
	locker     Locker
}

func NewOrchestrator(reports *Reports, engine *Engine, reputation ReputationLedger, notifier NotificationDispatcher, content ContentGateway, locker Locker) *Orchestrator {
	return &Orchestrator{
		reports:    reports,
		engine:     engine,
		reputation: reputation,
		notifier:   notifier,
		content:    content,
		locker:     locker,
	}
}

// ResolveReport sanctions the reported user, credits the reporter, optionally
// purges the content and finally marks the report resolved. The sanction is
// written first so a crash leaves an open report with its sanction attached;
// a retry picks that sanction up instead of issuing a second one. Only a
// sanction from the report's current resolution round counts: sanctions from
// before a reopen belong to an earlier verdict.
func (o *Orchestrator) ResolveReport(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	unlock, err := o.locker.Lock(ctx, reportLockKey(req.ReportID))
	if err != nil {
		return nil, dependency("lock report", err)
	}
	defer unlock()

	report, err := o.reports.Get(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	if report.State != models.ReportOpen {
		return nil, ErrAlreadyTerminal
	}

	sanction, err := o.engine.SanctionForReport(ctx, report.ID, report.ResolutionRound)
	if err != nil {
		return nil, err
	}
	if sanction != nil {
		slog.WarnContext(ctx, "resuming report resolution with existing sanction",
			"report_id", report.ID.String(), "sanction_id", sanction.ID.String(),
			"round", report.ResolutionRound)
	} else {
		reportID := report.ID
		sanction, err = o.engine.ApplySanction(ctx, SanctionRequest{
			UserID:       report.ReportedUserID,
			Type:         req.SanctionType,
			Reason:       strings.TrimSpace(req.Reason),
			AdminID:      req.AdminID,
			DurationDays: req.DurationDays,
			ReportID:     &reportID,
			ReportRound:  report.ResolutionRound,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := o.reputation.Increment(ctx, report.ReporterID, ReportRewardPoints); err != nil {
		return nil, dependency("credit reporter", err)
	}
	adminID := req.AdminID
	bestEffort(ctx, "notify", o.notifier.Notify(ctx, Notification{
		UserID:    report.ReporterID,
		Type:      NotifyReportValidated,
		Message:   ReportValidatedMessage,
		AdminID:   &adminID,
		ContentID: report.ContentID,
	}), "user_id", report.ReporterID.String(), "report_id", report.ID.String())

	purged := false
	if req.PurgeContent && report.ContentID != nil {
		deleted, err := o.content.DeleteContent(ctx, report.ContentType, *report.ContentID)
		bestEffort(ctx, "purge_content", err,
			"report_id", report.ID.String(), "content_type", string(report.ContentType), "content_id", *report.ContentID)
		purged = err == nil && deleted
	}

	resolved, err := o.reports.Resolve(ctx, report.ID, req.AdminID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "report resolved",
		"report_id", resolved.ID.String(),
		"sanction_id", sanction.ID.String(),
		"content_purged", purged,
	)
	return &Resolution{Report: resolved, Sanction: sanction, ContentPurged: purged}, nil
}

// DismissReport closes a report without consequences.
func (o *Orchestrator) DismissReport(ctx context.Context, reportID, adminID uuid.UUID) (*models.Report, error) {
	unlock, err := o.locker.Lock(ctx, reportLockKey(reportID))
	if err != nil {
		return nil, dependency("lock report", err)
	}
	defer unlock()

	return o.reports.Dismiss(ctx, reportID, adminID)
}

func (o *Orchestrator) ReopenReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	unlock, err := o.locker.Lock(ctx, reportLockKey(reportID))
	if err != nil {
		return nil, dependency("lock report", err)
	}
	defer unlock()

	return o.reports.Reopen(ctx, reportID)
}

func (o *Orchestrator) SubmitReport(ctx context.Context, in NewReport) (*models.Report, error) {
	return o.reports.Create(ctx, in)
}

func (o *Orchestrator) Report(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return o.reports.Get(ctx, id)
}

func (o *Orchestrator) ListReports(ctx context.Context, state models.ReportState, limit, offset int) ([]models.Report, int64, error) {
	return o.reports.List(ctx, state, limit, offset)
}

// ApplySanction issues a manual sanction outside of any report.
func (o *Orchestrator) ApplySanction(ctx context.Context, req SanctionRequest) (*models.Sanction, error) {
	return o.engine.ApplySanction(ctx, req)
}

func (o *Orchestrator) RevokeSanction(ctx context.Context, sanctionID, adminID uuid.UUID) (*models.Sanction, error) {
	return o.engine.RevokeSanction(ctx, sanctionID, adminID)
}

func (o *Orchestrator) UserSanctions(ctx context.Context, userID uuid.UUID) ([]models.Sanction, error) {
	return o.engine.UserSanctions(ctx, userID)
}
