package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/pkg/config"
	"github.com/johnquangdev/video-dubber/pkg/jobcontext"
)

const uploadAttempts = 3

// MinIOClient publishes run artifacts to an S3 compatible bucket
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string // Public URL for generating accessible URLs (e.g., https://minio.example.com)
	expiry    time.Duration
	logger    *zap.Logger
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists
func NewMinIOClient(cfg *config.StorageConfig, logger *zap.Logger) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	client := &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: cfg.PublicURL,
		expiry:    expiry,
		logger:    logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads one artifact. Transient failures are retried with exponential backoff.
func (m *MinIOClient) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	operation := func() error {
		_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil && !jobcontext.IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uploadAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if m.logger != nil {
			m.logger.Error("❌ Failed to upload artifact",
				zap.String("object", objectName),
				zap.Error(err),
			)
		}
		return apperrors.ErrStorageFailed("upload", err)
	}

	if m.logger != nil {
		m.logger.Info("📤 Artifact uploaded",
			zap.String("object", objectName),
			zap.Int("bytes", len(data)),
		)
	}
	return nil
}

// URL returns a presigned download URL, rewritten to the public endpoint when one is configured
func (m *MinIOClient) URL(ctx context.Context, objectName string) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, m.expiry, nil)
	if err != nil {
		return "", apperrors.ErrStorageFailed("presign", err)
	}

	// scheme://endpoint/bucket/object?query -> publicURL/bucket/object?query
	urlStr := url.String()
	if m.publicURL != "" {
		bucketPos := len(url.Scheme) + 3 + len(url.Host)
		if bucketPos < len(urlStr) {
			return m.publicURL + urlStr[bucketPos:], nil
		}
	}
	return urlStr, nil
}

// Ping checks the bucket is reachable
func (m *MinIOClient) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return apperrors.ErrStorageFailed("ping", err)
	}
	if !exists {
		return apperrors.ErrStorageFailed("ping", fmt.Errorf("bucket %s does not exist", m.bucket))
	}
	return nil
}
