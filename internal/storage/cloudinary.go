package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"docchat/internal/domain/services"
)

// CloudinaryStore uploads raw document files to Cloudinary and returns the
// delivery URL. Uploads use a random public id so two documents with the
// same filename never collide.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

// NewCloudinaryStore creates a store for the given Cloudinary account.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string, logger *slog.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder, logger: logger}, nil
}

var _ services.ObjectStore = (*CloudinaryStore)(nil)

// Store uploads the file and returns its secure delivery URL.
func (s *CloudinaryStore) Store(ctx context.Context, data []byte, filename string) (string, error) {
	publicID := fmt.Sprintf("%s-%s", uuid.NewString(), sanitize(filename))

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}

	s.logger.Debug("file uploaded",
		"filename", filename,
		"public_id", publicID,
		"bytes", len(data),
	)

	return result.SecureURL, nil
}

// sanitize strips path separators and characters Cloudinary rejects in
// public ids, keeping the extension so the delivery URL stays recognizable.
func sanitize(filename string) string {
	base := path.Base(filename)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
