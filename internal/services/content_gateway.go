package services

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// contentTarget describes where a content type lives.
type contentTarget struct {
	model        interface{}
	resourceType string // cloudinary resource type, empty when no artifact
}

func targetFor(t models.ContentType) (contentTarget, bool) {
	switch t {
	case models.ContentSong:
		// cloudinary files audio under the video resource type
		return contentTarget{model: &models.Song{}, resourceType: "video"}, true
	case models.ContentVideo:
		return contentTarget{model: &models.Video{}, resourceType: "video"}, true
	case models.ContentProfile:
		return contentTarget{model: &models.ProfileAsset{}, resourceType: "image"}, true
	case models.ContentChatMessage:
		return contentTarget{model: &models.ChatMessage{}}, true
	case models.ContentComment:
		return contentTarget{model: &models.Comment{}}, true
	}
	return contentTarget{}, false
}

// ContentGateway soft-deletes moderated rows and removes their media.
type ContentGateway struct {
	db        *gorm.DB
	artifacts ArtifactStore
}

func NewContentGateway(db *gorm.DB, artifacts ArtifactStore) *ContentGateway {
	return &ContentGateway{db: db, artifacts: artifacts}
}

// DeleteContent reports whether a row was removed. Content that no longer
// exists, or whose id cannot match a row, yields false with a nil error.
func (g *ContentGateway) DeleteContent(ctx context.Context, contentType models.ContentType, contentID string) (bool, error) {
	target, ok := targetFor(contentType)
	if !ok {
		return false, nil
	}
	id, err := uuid.Parse(contentID)
	if err != nil {
		return false, nil
	}

	var publicIDs []string
	if target.resourceType != "" {
		if err := g.db.WithContext(ctx).Model(target.model).
			Where("id = ?", id).
			Limit(1).
			Pluck("storage_public_id", &publicIDs).Error; err != nil {
			return false, err
		}
	}

	result := g.db.WithContext(ctx).Where("id = ?", id).Delete(target.model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	if len(publicIDs) > 0 && g.artifacts != nil {
		if err := g.artifacts.Destroy(ctx, publicIDs[0], target.resourceType); err != nil {
			slog.ErrorContext(ctx, "artifact delete failed", "action", "artifact_destroy",
				"content_type", string(contentType), "content_id", contentID, "error", err.Error())
		}
	}
	return true, nil
}

func (g *ContentGateway) SetProfileSuspended(ctx context.Context, userID uuid.UUID, suspended bool) error {
	return g.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("suspended", suspended).Error
}
