package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const pushTitle = "Moderation update"

// NotificationService stores in-app notifications and mirrors them to the
// user's device. A stored notification counts as delivered; push is
// best-effort.
type NotificationService struct {
	db   *gorm.DB
	push PushSender
}

func NewNotificationService(db *gorm.DB, push PushSender) *NotificationService {
	return &NotificationService{db: db, push: push}
}

func (s *NotificationService) Notify(ctx context.Context, n moderation.Notification) error {
	data := pushData(n)
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	row := models.Notification{
		ID:        uuid.New(),
		UserID:    n.UserID,
		Type:      n.Type,
		Message:   n.Message,
		ContentID: n.ContentID,
		AdminID:   n.AdminID,
		Data:      datatypes.JSON(raw),
		Unread:    true,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	if s.push == nil {
		return nil
	}
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "fcm_token").Where("id = ?", n.UserID).Limit(1).Find(&user).Error; err != nil {
		slog.WarnContext(ctx, "push token lookup failed", "action", "push_lookup", "user_id", n.UserID.String(), "error", err.Error())
		return nil
	}
	if strings.TrimSpace(user.FCMToken) == "" {
		return nil
	}
	data["notification_id"] = row.ID.String()
	if err := s.push.Send(ctx, user.FCMToken, pushTitle, n.Message, data); err != nil {
		slog.WarnContext(ctx, "push delivery failed", "action", "push_send", "user_id", n.UserID.String(), "error", err.Error())
	}
	return nil
}

// pushData renders the notification as FCM string data.
func pushData(n moderation.Notification) map[string]string {
	data := map[string]string{"type": n.Type}
	if n.ContentID != nil {
		data["content_id"] = *n.ContentID
	}
	if n.AdminID != nil {
		data["admin_id"] = n.AdminID.String()
	}
	return data
}
