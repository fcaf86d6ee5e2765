package models

import (
	"time"

	"github.com/google/uuid"
)

type SanctionType string

const (
	SanctionWarning             SanctionType = "warning"
	SanctionTemporarySuspension SanctionType = "temporary_suspension"
	SanctionPermanentSuspension SanctionType = "permanent_suspension"
)

func (t SanctionType) Valid() bool {
	switch t {
	case SanctionWarning, SanctionTemporarySuspension, SanctionPermanentSuspension:
		return true
	}
	return false
}

// Suspends reports whether the sanction locks the user's profile.
func (t SanctionType) Suspends() bool {
	return t == SanctionTemporarySuspension || t == SanctionPermanentSuspension
}

type SanctionState string

const (
	SanctionActive    SanctionState = "active"
	SanctionFulfilled SanctionState = "fulfilled"
	SanctionRevoked   SanctionState = "revoked"
)

// Sanction is an administrative penalty attached to a user. DurationDays and
// EndsAt are set only for temporary suspensions.
type Sanction struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID     `gorm:"type:uuid;not null;index:idx_sanctions_user_state" json:"user_id"`
	AdminID      uuid.UUID     `gorm:"type:uuid;not null" json:"admin_id"`
	Type         SanctionType  `gorm:"not null;size:30;index:idx_sanctions_user_state" json:"type"`
	Reason       string        `gorm:"not null;size:500" json:"reason"`
	DurationDays *int          `json:"duration_days,omitempty"`
	StartsAt     time.Time     `gorm:"not null" json:"starts_at"`
	EndsAt       *time.Time    `gorm:"index" json:"ends_at,omitempty"`
	State        SanctionState `gorm:"not null;default:'active';size:20;index:idx_sanctions_user_state" json:"state"`
	ReportID     *uuid.UUID    `gorm:"type:uuid;index:idx_sanctions_report_round" json:"report_id,omitempty"`
	ReportRound  int           `gorm:"not null;default:0;index:idx_sanctions_report_round" json:"report_round"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (Sanction) TableName() string {
	return "sanctions"
}
