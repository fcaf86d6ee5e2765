package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the slice of the profile schema the moderation backend touches.
// Profile CRUD lives elsewhere; this service only reads Role and FCMToken and
// flips Suspended through the content gateway.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	DisplayName string         `gorm:"size:100" json:"display_name"`
	Role        string         `gorm:"size:20;default:'user'" json:"role"`
	FCMToken    string         `gorm:"size:512" json:"-"`
	Suspended   bool           `gorm:"not null;default:false;index" json:"suspended"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
