package listing

import (
	"context"
	"time"
)

// ImageStorage stores listing photos. Clients upload directly through a
// presigned URL and the service confirms the key afterwards.
type ImageStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	PublicURL(ctx context.Context, storageKey string) (string, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
