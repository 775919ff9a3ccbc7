package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/shmoo/internal/config"
	"github.com/RMahshie/shmoo/internal/repository/memory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ARCHIVE_DIR", filepath.Join(t.TempDir(), "archive"))
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_InMemory(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.RunRepository{}, a.Runs)
	assert.NotNil(t, a.Archiver)
	assert.NotNil(t, a.Runner)
	assert.NotNil(t, a.Service)
}

func TestNewArchiver(t *testing.T) {
	cfg := testConfig(t)

	cfg.Archive.Backend = "none"
	a, err := NewArchiver(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, a)

	cfg.Archive.Backend = "ftp"
	_, err = NewArchiver(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_BadDialect(t *testing.T) {
	cfg := testConfig(t)
	cfg.Processing.TitlePattern = "("
	_, err := New(context.Background(), cfg, prometheus.NewRegistry())
	assert.Error(t, err)
}
