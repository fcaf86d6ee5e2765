package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
	"github.com/google/uuid"
)

func TestPushData(t *testing.T) {
	admin := uuid.New()
	song := "song-1"

	data := pushData(moderation.Notification{
		UserID:    uuid.New(),
		Type:      "sanction_warning",
		Message:   "x",
		AdminID:   &admin,
		ContentID: &song,
	})
	if data["type"] != "sanction_warning" {
		t.Errorf("expected type sanction_warning, got %q", data["type"])
	}
	if data["admin_id"] != admin.String() {
		t.Errorf("expected admin id, got %q", data["admin_id"])
	}
	if data["content_id"] != song {
		t.Errorf("expected content id, got %q", data["content_id"])
	}

	data = pushData(moderation.Notification{Type: moderation.NotifyReportValidated})
	if _, ok := data["admin_id"]; ok {
		t.Error("expected no admin id")
	}
	if _, ok := data["content_id"]; ok {
		t.Error("expected no content id")
	}
}

func TestTargetFor(t *testing.T) {
	tests := []struct {
		contentType  models.ContentType
		resourceType string
	}{
		{models.ContentSong, "video"},
		{models.ContentVideo, "video"},
		{models.ContentProfile, "image"},
		{models.ContentChatMessage, ""},
		{models.ContentComment, ""},
	}
	for _, tt := range tests {
		target, ok := targetFor(tt.contentType)
		if !ok {
			t.Errorf("%s: expected a target", tt.contentType)
			continue
		}
		if target.resourceType != tt.resourceType {
			t.Errorf("%s: expected resource type %q, got %q", tt.contentType, tt.resourceType, target.resourceType)
		}
	}
	if _, ok := targetFor("story"); ok {
		t.Error("expected no target for unknown type")
	}
}

func TestUnconfiguredDeliveryIsNoop(t *testing.T) {
	ctx := context.Background()

	var fcm *FCMService
	if err := fcm.Send(ctx, "token", "t", "b", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if NewFCMService(ctx, "") != nil {
		t.Error("expected nil FCM service without credentials")
	}

	artifacts, err := NewCloudinaryArtifacts("", "", "")
	if err != nil || artifacts != nil {
		t.Fatalf("expected nil artifacts, got %v, %v", artifacts, err)
	}
	if err := artifacts.Destroy(ctx, "songs/abc", "video"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestDeleteContent_UnmatchableIDsDeleteNothing(t *testing.T) {
	g := NewContentGateway(nil, nil)
	ctx := context.Background()

	tests := []struct {
		contentType models.ContentType
		id          string
	}{
		{"story", "2b7c1f7e-6c3e-4b43-9a43-1f0d5a2f8e11"},
		{models.ContentSong, "song-42"},
	}
	for _, tt := range tests {
		deleted, err := g.DeleteContent(ctx, tt.contentType, tt.id)
		if err != nil || deleted {
			t.Errorf("%s/%s: expected false, nil; got %v, %v", tt.contentType, tt.id, deleted, err)
		}
	}
}
