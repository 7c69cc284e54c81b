// Package storage keeps listing photos in object storage. Renters' browsers
// upload straight to the bucket through presigned URLs; the API only signs
// URLs and confirms that the object arrived.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ listingapp.ImageStorage = (*S3ImageStorage)(nil)

// ErrEmptyKey is returned by every operation given a blank object key
var ErrEmptyKey = errors.New("storage key is required")

const (
	defaultRegion            = "us-east-1"
	defaultPresignExpiration = 15 * time.Minute
	// SigV4 refuses presigned URLs that live longer than a week
	maxPresignExpiration = 7 * 24 * time.Hour
)

// missingCodes are the error codes S3, MinIO and RustFS use for an absent bucket or key
var missingCodes = map[string]struct{}{
	"NotFound":     {},
	"NoSuchKey":    {},
	"NoSuchBucket": {},
	"404":          {},
}

// S3ImageStorage talks to any S3-compatible bucket
type S3ImageStorage struct {
	client            *s3.Client
	presign           *s3.PresignClient
	bucket            string
	publicBaseURL     string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3ImageStorageOption configures S3ImageStorage
type S3ImageStorageOption func(*S3ImageStorage)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) S3ImageStorageOption {
	return func(s *S3ImageStorage) { s.logger = logger }
}

// WithPresignExpiration overrides the default upload URL lifetime
func WithPresignExpiration(d time.Duration) S3ImageStorageOption {
	return func(s *S3ImageStorage) { s.presignExpiration = d }
}

// NewS3ImageStorage builds a client for cfg.Bucket. No request is sent until
// EnsureBucket or an object operation runs.
func NewS3ImageStorage(cfg *config.StorageConfig, opts ...S3ImageStorageOption) (*S3ImageStorage, error) {
	if err := checkStorageConfig(cfg); err != nil {
		return nil, err
	}
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	s := &S3ImageStorage{
		client:            client,
		presign:           s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		publicBaseURL:     strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.presignExpiration = clampExpiry(s.presignExpiration, defaultPresignExpiration)
	return s, nil
}

func checkStorageConfig(cfg *config.StorageConfig) error {
	switch {
	case cfg == nil:
		return errors.New("storage configuration is required")
	case cfg.Bucket == "":
		return errors.New("storage bucket is required")
	case cfg.AccessKey == "":
		return errors.New("storage access key is required")
	case cfg.SecretKey == "":
		return errors.New("storage secret key is required")
	}
	return nil
}

func newClient(cfg *config.StorageConfig) (*s3.Client, error) {
	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage credentials: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// normalizeEndpoint prefixes a bare host with a scheme; "" keeps the AWS endpoint
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

func clampExpiry(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return min(d, maxPresignExpiration)
}

func checkKey(storageKey string) error {
	if strings.TrimSpace(storageKey) == "" {
		return ErrEmptyKey
	}
	return nil
}

// isMissing reports whether err is the store saying the bucket or key does not exist
func isMissing(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	_, ok := missingCodes[apiErr.ErrorCode()]
	return ok
}

// Bucket is the configured bucket name
func (s *S3ImageStorage) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket on first start
func (s *S3ImageStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	switch {
	case err == nil:
		return nil
	case !isMissing(err):
		return fmt.Errorf("failed to check bucket %q: %w", s.bucket, err)
	}

	s.logger.Info("Creating image bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BucketAlreadyOwnedByYou" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// GenerateUploadURL signs a PUT for storageKey. A non-positive expiresIn uses the configured default.
func (s *S3ImageStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if err := checkKey(storageKey); err != nil {
		return "", time.Time{}, err
	}
	expiresIn = clampExpiry(expiresIn, s.presignExpiration)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign upload for %s: %w", storageKey, err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// PublicURL is the address saved on the listing. Without a CDN base URL it is a
// presigned GET valid for the longest SigV4 allows.
func (s *S3ImageStorage) PublicURL(ctx context.Context, storageKey string) (string, error) {
	if err := checkKey(storageKey); err != nil {
		return "", err
	}
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + strings.TrimLeft(storageKey, "/"), nil
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(maxPresignExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to sign download for %s: %w", storageKey, err)
	}
	return req.URL, nil
}

// ObjectExists confirms an upload landed before the image is attached to a listing
func (s *S3ImageStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if err := checkKey(storageKey); err != nil {
		return false, err
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	switch {
	case err == nil:
		return true, nil
	case isMissing(err):
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", storageKey, err)
}

// DeleteObject removes a photo; deleting an absent key succeeds
func (s *S3ImageStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if err := checkKey(storageKey); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil && !isMissing(err) {
		return fmt.Errorf("failed to delete %s: %w", storageKey, err)
	}
	s.logger.Debug("Deleted listing image", zap.String("key", storageKey))
	return nil
}

// Put writes body server-side. Seed data and tests use it; clients go through GenerateUploadURL.
func (s *S3ImageStorage) Put(ctx context.Context, storageKey string, body io.Reader, contentType string) error {
	if err := checkKey(storageKey); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", storageKey, err)
	}
	return nil
}
