package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	listingapp "github.com/rentnest/backend/internal/application/listing"
)

var _ listingapp.ImageStorage = (*StubImageStorage)(nil)

const defaultStubBaseURL = "http://localhost:9000/rentnest-images"

// StubImageStorage stands in when object storage is disabled. Every key is
// reported present so a landlord can attach images in development.
type StubImageStorage struct {
	BaseURL string
}

func NewStubImageStorage(baseURL string) *StubImageStorage {
	if baseURL == "" {
		baseURL = defaultStubBaseURL
	}
	return &StubImageStorage{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *StubImageStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if err := checkKey(storageKey); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(clampExpiry(expiresIn, defaultPresignExpiration))
	q := url.Values{"expires": {expiresAt.UTC().Format(time.RFC3339)}}
	return s.BaseURL + "/upload/" + storageKey + "?" + q.Encode(), expiresAt, nil
}

func (s *StubImageStorage) PublicURL(_ context.Context, storageKey string) (string, error) {
	if err := checkKey(storageKey); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + strings.TrimLeft(storageKey, "/"), nil
}

func (s *StubImageStorage) DeleteObject(_ context.Context, storageKey string) error {
	return checkKey(storageKey)
}

func (s *StubImageStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if err := checkKey(storageKey); err != nil {
		return false, err
	}
	return true, nil
}
