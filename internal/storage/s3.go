package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// S3Config holds configuration for the S3 archive
type S3Config struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Archiver creates an archiver writing to an S3 bucket. A non-empty
// Endpoint targets an S3-compatible server such as MinIO.
func NewS3Archiver(ctx context.Context, cfg S3Config) (Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	region := cfg.Region
	if cfg.Endpoint != "" {
		region = "us-east-1" // MinIO doesn't care about region
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "http://" + endpoint
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true // MinIO requires path-style URLs
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &s3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

func (a *s3Archiver) Archive(ctx context.Context, srcDir, name string) (string, error) {
	snapshot := objectKey(a.prefix, SnapshotName(a.now(), name))
	err := uploadTree(ctx, srcDir, snapshot, func(ctx context.Context, key, path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String("text/plain"),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive to s3: %w", err)
	}
	return "s3://" + a.bucket + "/" + snapshot, nil
}

func (a *s3Archiver) List(ctx context.Context) ([]string, error) {
	return a.children(ctx, a.prefix)
}

func (a *s3Archiver) Contents(ctx context.Context, snapshot string) ([]string, error) {
	return a.children(ctx, objectKey(a.prefix, snapshot))
}

// children lists the "directories" directly under prefix
func (a *s3Archiver) children(ctx context.Context, prefix string) ([]string, error) {
	if prefix != "" {
		prefix += "/"
	}
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(a.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			names = append(names, name)
		}
	}
	return keepEntries(names), nil
}
