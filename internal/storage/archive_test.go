package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

// startMinIO runs MinIO in a container and returns its host:port
func startMinIO(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcminio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return endpoint
}

func TestObjectArchivers_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	endpoint := startMinIO(t)
	fixed := func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }

	// MinIO creates the bucket the S3 archiver then shares
	m, err := NewMinIOArchiver(ctx, MinIOConfig{
		Endpoint:  endpoint,
		Bucket:    "shmoo-archive",
		Prefix:    "minio",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	m.(*minioArchiver).now = fixed

	s, err := NewS3Archiver(ctx, S3Config{
		Bucket:    "shmoo-archive",
		Prefix:    "s3",
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	s.(*s3Archiver).now = fixed

	tests := []struct {
		name     string
		archiver Archiver
		location string
	}{
		{"minio", m, "shmoo-archive/minio/20261018-lot7"},
		{"s3", s, "s3://shmoo-archive/s3/20261018-lot7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := tt.archiver.Archive(ctx, writePlotTree(t), "lot7")
			require.NoError(t, err)
			assert.Equal(t, tt.location, loc)

			snapshots, err := tt.archiver.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"20261018-lot7"}, snapshots)

			contents, err := tt.archiver.Contents(ctx, "20261018-lot7")
			require.NoError(t, err)
			assert.Equal(t, []string{"Func"}, contents)
		})
	}
}
