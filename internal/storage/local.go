package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

type localArchiver struct {
	root string
	now  func() time.Time
}

// NewLocalArchiver archives into directories under root
func NewLocalArchiver(root string) (Archiver, error) {
	if root == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	return &localArchiver{root: root, now: time.Now}, nil
}

func (a *localArchiver) Archive(ctx context.Context, srcDir, name string) (string, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return "", fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("source %s is not a directory", srcDir)
	}

	dst := filepath.Join(a.root, SnapshotName(a.now(), name))
	files, err := sourceFiles(srcDir)
	if err != nil {
		return "", err
	}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		from := filepath.Join(srcDir, filepath.FromSlash(rel))
		to := filepath.Join(dst, filepath.FromSlash(rel))
		if err := copyFile(from, to); err != nil {
			return "", fmt.Errorf("copy %s: %w", rel, err)
		}
	}
	return dst, nil
}

func (a *localArchiver) List(ctx context.Context) ([]string, error) {
	return listDirs(a.root)
}

func (a *localArchiver) Contents(ctx context.Context, snapshot string) ([]string, error) {
	return listDirs(filepath.Join(a.root, snapshot))
}

// listDirs returns the real subdirectories of dir
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && e.Type()&os.ModeSymlink == 0 {
			names = append(names, e.Name())
		}
	}
	return keepEntries(names), nil
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
