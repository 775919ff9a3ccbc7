package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioArchiver struct {
	client *minio.Client
	bucket string
	prefix string
	now    func() time.Time
}

// MinIOConfig holds configuration for the MinIO archive
type MinIOConfig struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewMinIOArchiver connects to MinIO and creates the bucket when missing
func NewMinIOArchiver(ctx context.Context, cfg MinIOConfig) (Archiver, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &minioArchiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

func (a *minioArchiver) Archive(ctx context.Context, srcDir, name string) (string, error) {
	snapshot := objectKey(a.prefix, SnapshotName(a.now(), name))
	err := uploadTree(ctx, srcDir, snapshot, func(ctx context.Context, key, path string) error {
		_, err := a.client.FPutObject(ctx, a.bucket, key, path, minio.PutObjectOptions{ContentType: "text/plain"})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive to minio: %w", err)
	}
	return a.bucket + "/" + snapshot, nil
}

func (a *minioArchiver) List(ctx context.Context) ([]string, error) {
	return a.children(ctx, a.prefix)
}

func (a *minioArchiver) Contents(ctx context.Context, snapshot string) ([]string, error) {
	return a.children(ctx, objectKey(a.prefix, snapshot))
}

func (a *minioArchiver) children(ctx context.Context, prefix string) ([]string, error) {
	if prefix != "" {
		prefix += "/"
	}
	var names []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/"))
	}
	return keepEntries(names), nil
}
