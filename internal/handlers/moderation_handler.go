package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Moderator is the orchestration surface the handlers drive.
type Moderator interface {
	SubmitReport(ctx context.Context, in moderation.NewReport) (*models.Report, error)
	Report(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListReports(ctx context.Context, state models.ReportState, limit, offset int) ([]models.Report, int64, error)
	ResolveReport(ctx context.Context, req moderation.ResolveRequest) (*moderation.Resolution, error)
	DismissReport(ctx context.Context, reportID, adminID uuid.UUID) (*models.Report, error)
	ReopenReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error)
	ApplySanction(ctx context.Context, req moderation.SanctionRequest) (*models.Sanction, error)
	RevokeSanction(ctx context.Context, sanctionID, adminID uuid.UUID) (*models.Sanction, error)
	UserSanctions(ctx context.Context, userID uuid.UUID) ([]models.Sanction, error)
}

type ModerationHandler struct {
	moderator Moderator
	validator *Validator
}

func NewModerationHandler(moderator Moderator, validator *Validator) *ModerationHandler {
	return &ModerationHandler{moderator: moderator, validator: validator}
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateReportRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	report, err := h.moderator.SubmitReport(requestContext(c), moderation.NewReport{
		ReporterID:     userID,
		ReportedUserID: req.ReportedUserID,
		ContentType:    models.ContentType(req.ContentType),
		ContentID:      req.ContentID,
		Reason:         req.Reason,
		Body:           req.Body,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	state := models.ReportState(c.Query("state", ""))
	switch state {
	case "", models.ReportOpen, models.ReportResolved, models.ReportDismissed:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "state must be open, resolved or dismissed",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	reports, total, err := h.moderator.ListReports(requestContext(c), state, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return c.JSON(dto.ReportListResponse{
		Reports: reports,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (h *ModerationHandler) GetReport(c *fiber.Ctx) error {
	reportID, ok, err := paramID(c, "id", "Invalid report ID")
	if !ok {
		return err
	}

	report, err := h.moderator.Report(requestContext(c), reportID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *ModerationHandler) ResolveReport(c *fiber.Ctx) error {
	adminID, err := middleware.GetAdminID(c)
	if err != nil {
		return forbidden(c)
	}
	reportID, ok, err := paramID(c, "id", "Invalid report ID")
	if !ok {
		return err
	}

	var req dto.ResolveReportRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	res, err := h.moderator.ResolveReport(requestContext(c), moderation.ResolveRequest{
		ReportID:     reportID,
		SanctionType: models.SanctionType(req.SanctionType),
		Reason:       req.Reason,
		DurationDays: req.DurationDays,
		AdminID:      adminID,
		PurgeContent: req.PurgeContent,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *ModerationHandler) DismissReport(c *fiber.Ctx) error {
	adminID, err := middleware.GetAdminID(c)
	if err != nil {
		return forbidden(c)
	}
	reportID, ok, err := paramID(c, "id", "Invalid report ID")
	if !ok {
		return err
	}

	report, err := h.moderator.DismissReport(requestContext(c), reportID, adminID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *ModerationHandler) ReopenReport(c *fiber.Ctx) error {
	reportID, ok, err := paramID(c, "id", "Invalid report ID")
	if !ok {
		return err
	}

	report, err := h.moderator.ReopenReport(requestContext(c), reportID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *ModerationHandler) ApplySanction(c *fiber.Ctx) error {
	adminID, err := middleware.GetAdminID(c)
	if err != nil {
		return forbidden(c)
	}

	var req dto.ApplySanctionRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	sanction, err := h.moderator.ApplySanction(requestContext(c), moderation.SanctionRequest{
		UserID:       req.UserID,
		Type:         models.SanctionType(req.SanctionType),
		Reason:       req.Reason,
		AdminID:      adminID,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sanction)
}

func (h *ModerationHandler) RevokeSanction(c *fiber.Ctx) error {
	adminID, err := middleware.GetAdminID(c)
	if err != nil {
		return forbidden(c)
	}
	sanctionID, ok, err := paramID(c, "id", "Invalid sanction ID")
	if !ok {
		return err
	}

	sanction, err := h.moderator.RevokeSanction(requestContext(c), sanctionID, adminID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sanction)
}

func (h *ModerationHandler) UserSanctions(c *fiber.Ctx) error {
	userID, ok, err := paramID(c, "id", "Invalid user ID")
	if !ok {
		return err
	}

	sanctions, err := h.moderator.UserSanctions(requestContext(c), userID)
	if err != nil {
		return writeError(c, err)
	}
	if sanctions == nil {
		sanctions = []models.Sanction{}
	}
	return c.JSON(dto.SanctionListResponse{Sanctions: sanctions})
}

// bind parses and validates the body. When ok is false the response has
// been written and err must be returned as is.
func (h *ModerationHandler) bind(c *fiber.Ctx, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if fields := h.validator.Validate(out); len(fields) > 0 {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Validation failed", Fields: fields,
		})
	}
	return true, nil
}

func paramID(c *fiber.Ctx, name, message string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: message,
		})
	}
	return id, true, nil
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: "Admin access required",
	})
}

// writeError maps domain errors to HTTP responses. Anything unknown goes to
// the app error handler, which hides the details.
func writeError(c *fiber.Ctx, err error) error {
	status := 0
	switch {
	case errors.Is(err, moderation.ErrReportNotFound), errors.Is(err, moderation.ErrSanctionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, moderation.ErrAlreadyTerminal),
		errors.Is(err, moderation.ErrNotTerminal),
		errors.Is(err, moderation.ErrDuplicateReport):
		status = fiber.StatusConflict
	case errors.Is(err, moderation.ErrRateLimitExceeded):
		status = fiber.StatusTooManyRequests
	case errors.Is(err, moderation.ErrValidation):
		status = fiber.StatusBadRequest
	}
	if status == 0 {
		return err
	}

	resp := dto.ErrorResponse{Error: true, Message: err.Error()}
	var ve *moderation.ValidationError
	if errors.As(err, &ve) {
		resp.Message = "Validation failed"
		resp.Fields = []dto.FieldError{{Field: ve.Field, Msg: ve.Message}}
	}
	return c.Status(status).JSON(resp)
}

// requestContext carries the request's sentry hub into the domain layer.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		ctx = sentry.SetHubOnContext(ctx, hub)
	}
	return ctx
}
