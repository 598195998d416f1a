package export

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveConfig holds object storage settings for report retention.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Archive stores generated reports in an S3-compatible bucket.
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive connects to object storage and ensures the bucket exists.
func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("export: created archive bucket %s", cfg.Bucket)
	}

	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// Put stores a generated report under reports/<userID>/<filename>.
func (a *Archive) Put(ctx context.Context, userID string, res *Result) error {
	objectName := fmt.Sprintf("reports/%s/%s", userID, res.Filename)
	_, err := a.client.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(res.Data), int64(len(res.Data)),
		minio.PutObjectOptions{ContentType: res.MimeType})
	if err != nil {
		return fmt.Errorf("archive report %s: %w", objectName, err)
	}
	return nil
}
