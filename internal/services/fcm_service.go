package services

import (
	"context"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// PushSender delivers a push message to one device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCMService sends push notifications via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService returns nil if Firebase is not configured or fails to start.
func NewFCMService(ctx context.Context, credentialsFile string) *FCMService {
	if credentialsFile == "" {
		return nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		slog.Error("firebase init failed", "action", "fcm_init", "error", err.Error())
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		slog.Error("firebase messaging client failed", "action", "fcm_init", "error", err.Error())
		return nil
	}
	return &FCMService{client: client}
}

func (s *FCMService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if s == nil || token == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
	_, err := s.client.Send(ctx, msg)
	return err
}
