package dto

import (
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
)

type CreateReportRequest struct {
	ReportedUserID uuid.UUID `json:"reported_user_id" validate:"required"`
	ContentType    string    `json:"content_type" validate:"required,oneof=profile song video chat_message comment"`
	ContentID      *string   `json:"content_id" validate:"omitempty,max=255"`
	Reason         string    `json:"reason" validate:"required,max=500"`
	Body           string    `json:"body" validate:"max=5000"`
}

type ResolveReportRequest struct {
	SanctionType string `json:"sanction_type" validate:"required,oneof=warning temporary_suspension permanent_suspension"`
	Reason       string `json:"reason" validate:"required,max=500"`
	DurationDays *int   `json:"duration_days" validate:"omitempty,min=1,max=3650"`
	PurgeContent bool   `json:"purge_content"`
}

type ApplySanctionRequest struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	SanctionType string    `json:"sanction_type" validate:"required,oneof=warning temporary_suspension permanent_suspension"`
	Reason       string    `json:"reason" validate:"required,max=500"`
	DurationDays *int      `json:"duration_days" validate:"omitempty,min=1,max=3650"`
}

type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type SanctionListResponse struct {
	Sanctions []models.Sanction `json:"sanctions"`
}
