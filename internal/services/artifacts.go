package services

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// ArtifactStore removes binary artifacts backing moderated content.
type ArtifactStore interface {
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// CloudinaryArtifacts deletes uploaded media from Cloudinary.
type CloudinaryArtifacts struct {
	uploader *uploader.API
}

// NewCloudinaryArtifacts returns nil when Cloudinary is not configured.
func NewCloudinaryArtifacts(cloudName, apiKey, apiSecret string) (*CloudinaryArtifacts, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, nil
	}
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &CloudinaryArtifacts{uploader: up}, nil
}

// Destroy treats an already missing asset as success.
func (c *CloudinaryArtifacts) Destroy(ctx context.Context, publicID, resourceType string) error {
	if c == nil || publicID == "" {
		return nil
	}
	invalidate := true
	res, err := c.uploader.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   &invalidate,
	})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	}
	return fmt.Errorf("cloudinary destroy %s: unexpected result %q", publicID, res.Result)
}
