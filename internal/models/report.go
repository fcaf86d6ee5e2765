package models

import (
	"time"

	"github.com/google/uuid"
)

type ReportState string

const (
	ReportOpen      ReportState = "open"
	ReportResolved  ReportState = "resolved"
	ReportDismissed ReportState = "dismissed"
)

// Terminal reports no longer take part in the automated pipeline.
func (s ReportState) Terminal() bool {
	return s == ReportResolved || s == ReportDismissed
}

type ContentType string

const (
	ContentProfile     ContentType = "profile"
	ContentSong        ContentType = "song"
	ContentVideo       ContentType = "video"
	ContentChatMessage ContentType = "chat_message"
	ContentComment     ContentType = "comment"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentProfile, ContentSong, ContentVideo, ContentChatMessage, ContentComment:
		return true
	}
	return false
}

// Report is a user complaint about another user's content or behavior.
// The composite unique index backs the one-report-per-content rule; DedupeKey
// falls back to the reported user id when the content type has no id.
// ResolutionRound counts reopens; sanctions issued for the report carry the
// round they belong to.
type Report struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReporterID      uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_reports_dedupe" json:"reporter_id"`
	ReportedUserID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"reported_user_id"`
	ContentType     ContentType `gorm:"not null;size:50;uniqueIndex:idx_reports_dedupe" json:"content_type"`
	ContentID       *string     `gorm:"size:255;index" json:"content_id,omitempty"`
	DedupeKey       string      `gorm:"not null;size:255;uniqueIndex:idx_reports_dedupe" json:"-"`
	Reason          string      `gorm:"not null;size:500" json:"reason"`
	Body            string      `gorm:"type:text" json:"body"`
	State           ReportState `gorm:"not null;default:'open';size:20;index" json:"state"`
	ResolvedBy      *uuid.UUID  `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	ResolutionRound int         `gorm:"not null;default:0" json:"resolution_round"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}
