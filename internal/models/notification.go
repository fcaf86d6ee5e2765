package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string         `gorm:"size:50;not null;index" json:"type"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	ContentID *string        `gorm:"size:255" json:"content_id,omitempty"`
	AdminID   *uuid.UUID     `gorm:"type:uuid" json:"-"`
	Data      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"data"`
	Unread    bool           `gorm:"not null;default:true;index" json:"unread"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
