package models

import (
	"time"

	"github.com/google/uuid"
)

// ReputationScore holds the running total per user.
type ReputationScore struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReputationScore) TableName() string {
	return "reputation_scores"
}

// ReputationEvent journals every delta applied to a score.
type ReputationEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Delta     int       `gorm:"not null" json:"delta"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReputationEvent) TableName() string {
	return "reputation_events"
}
