package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lopataa/schoolshop/pkg/storage"
)

const presignExpiry = 5 * time.Minute

// UploadService hands out short-lived presigned PUT URLs so product images
// go straight from the admin's browser to object storage.
type UploadService struct {
	bucket *storage.Bucket
}

func NewUploadService(bucket *storage.Bucket) *UploadService {
	return &UploadService{bucket: bucket}
}

// UploadTicket is everything the client needs to perform the upload and
// reference the file afterwards.
type UploadTicket struct {
	UploadURL  string `json:"uploadUrl"`
	FileURL    string `json:"fileUrl"`
	ObjectName string `json:"objectName"`
}

// Presign issues a ticket for one upload. Object names are prefixed with a
// random UUID so concurrent uploads of identically named files never
// collide.
func (s *UploadService) Presign(ctx context.Context, filename, contentType string) (*UploadTicket, error) {
	if s.bucket == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrValidation)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename required", ErrValidation)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: only image uploads are allowed", ErrValidation)
	}

	objectName := uuid.NewString() + "-" + sanitizeFilename(filename)

	uploadURL, err := s.bucket.PresignPut(ctx, objectName, contentType, presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("upload: presign: %w", err)
	}

	return &UploadTicket{
		UploadURL:  uploadURL,
		FileURL:    s.bucket.URL(objectName),
		ObjectName: objectName,
	}, nil
}

// sanitizeFilename reduces a user-supplied name to a safe object key
// component.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
