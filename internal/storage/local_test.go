package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePlotTree creates a processed plot tree with one test, its aggregate
// and its OR diff directory
func writePlotTree(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "lot7")
	files := map[string]string{
		"Func/lot7_Func_site1.log":        "site1\n",
		"Func/lot7_Func_site2.log":        "site2\n",
		"Func_aggregated_OR.log":          "agg\n",
		"Func.OR_XOR/lot7_Func_site1.log": "diff\n",
	}
	for rel, body := range files {
		path := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return src
}

func TestLocalArchiver(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	a, err := NewLocalArchiver(root)
	require.NoError(t, err)
	a.(*localArchiver).now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }

	dst, err := a.Archive(ctx, writePlotTree(t), "lot7")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "20261018-lot7"), dst)

	b, err := os.ReadFile(filepath.Join(dst, "Func", "lot7_Func_site2.log"))
	require.NoError(t, err)
	assert.Equal(t, "site2\n", string(b))
	assert.FileExists(t, filepath.Join(dst, "Func_aggregated_OR.log"))
	assert.FileExists(t, filepath.Join(dst, "Func.OR_XOR", "lot7_Func_site1.log"))

	require.NoError(t, os.Mkdir(filepath.Join(root, "stale.AND_XOR"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0o644))

	snapshots, err := a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20261018-lot7"}, snapshots)

	contents, err := a.Contents(ctx, "20261018-lot7")
	require.NoError(t, err)
	assert.Equal(t, []string{"Func"}, contents)

	// archiving the same day again overwrites in place
	_, err = a.Archive(ctx, writePlotTree(t), "lot7")
	require.NoError(t, err)
}

func TestLocalArchiver_Errors(t *testing.T) {
	_, err := NewLocalArchiver("")
	assert.Error(t, err)

	a, err := NewLocalArchiver(t.TempDir())
	require.NoError(t, err)

	_, err = a.Archive(context.Background(), filepath.Join(t.TempDir(), "missing"), "x")
	assert.Error(t, err)

	_, err = a.Contents(context.Background(), "missing")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Archive(ctx, writePlotTree(t), "lot7")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsDiffDir(t *testing.T) {
	assert.True(t, IsDiffDir("Func.OR_XOR"))
	assert.True(t, IsDiffDir("Func.AND_XOR"))
	assert.True(t, IsDiffDir("Func.MajorityVote_XOR"))
	assert.False(t, IsDiffDir("Func"))
	assert.False(t, IsDiffDir("Func_aggregated_OR.log"))
	assert.False(t, IsDiffDir("OR_XOR"))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a/b/c.log", objectKey("a/", "", "/b", "c.log"))
	assert.Equal(t, "", objectKey("", ""))
}
