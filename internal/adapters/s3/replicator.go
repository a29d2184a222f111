package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes the S3-compatible endpoint photos are mirrored to.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// Replicator implements ports.BlobReplicator on MinIO / S3.
type Replicator struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewReplicator connects to the endpoint and makes sure the bucket exists.
func NewReplicator(ctx context.Context, cfg Config) (*Replicator, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Bucket, err)
		}
		slog.Info("created replica bucket", "bucket", cfg.Bucket)
	}

	return &Replicator{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// ObjectKey maps a stored file name to its object key.
func ObjectKey(prefix, name string) string {
	return path.Join(prefix, filepath.ToSlash(name))
}

// Replicate uploads r as the object for name, overwriting previous versions
// just like the local directory does.
func (r *Replicator) Replicate(ctx context.Context, name string, body io.Reader, size int64) error {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(r.prefix, name)
	_, err := r.client.PutObject(ctx, r.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Ping checks the bucket is reachable.
func (r *Replicator) Ping(ctx context.Context) error {
	_, err := r.client.BucketExists(ctx, r.bucket)
	return err
}
