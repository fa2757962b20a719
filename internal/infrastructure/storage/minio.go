package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/recalliq-ai/backend/pkg/config"
)

// MinIOClient wraps MinIO operations for meeting report exports
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string // Public URL used when MinIO sits behind a reverse proxy
}

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: cfg.PublicURL,
	}

	ctx := context.Background()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket creates the export bucket if it does not exist yet.
// Exports stay private; access goes through presigned URLs only.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// UploadFile uploads a file to MinIO
func (m *MinIOClient) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

// UploadText uploads text content to MinIO
func (m *MinIOClient) UploadText(ctx context.Context, objectName string, content string) error {
	reader := bytes.NewReader([]byte(content))
	return m.UploadFile(ctx, objectName, reader, int64(len(content)), "text/plain; charset=utf-8")
}

// GetFileURL gets a presigned URL for accessing a file
func (m *MinIOClient) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	// When a public URL is configured (MinIO behind Nginx), swap the
	// internal endpoint for the public one and keep path plus signature.
	if m.publicURL != "" {
		urlStr := url.String()
		bucketPos := len(url.Scheme) + 3 + len(url.Host)
		if bucketPos < len(urlStr) {
			return m.publicURL + urlStr[bucketPos:], nil
		}
	}

	return url.String(), nil
}

// ListFiles lists all files in the bucket under prefix
func (m *MinIOClient) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	var files []string

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		files = append(files, object.Key)
	}

	return files, nil
}
