package storage

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/RMahshie/shmoo/pkg/models"
)

// Archiver snapshots the plot tree of a processed dump
type Archiver interface {
	// Archive copies every file under srcDir into a dated snapshot named
	// after name and returns the snapshot location.
	Archive(ctx context.Context, srcDir, name string) (string, error)
	// List returns the snapshot names in the archive
	List(ctx context.Context) ([]string, error)
	// Contents returns the test directories of one snapshot, diff
	// directories excluded.
	Contents(ctx context.Context, snapshot string) ([]string, error)
}

// SnapshotName prefixes name with the day it was archived
func SnapshotName(now time.Time, name string) string {
	return now.Format("20060102") + "-" + name
}

// IsDiffDir reports whether a directory holds diffs against an aggregate
func IsDiffDir(name string) bool {
	for _, mode := range models.Modes {
		if strings.HasSuffix(name, "."+mode.DiffLabel()) {
			return true
		}
	}
	return false
}

// sourceFiles lists the regular files under srcDir as slash-separated
// relative paths
func sourceFiles(srcDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", srcDir, err)
	}
	return files, nil
}

// keepEntries drops diff directories and sorts the rest
func keepEntries(names []string) []string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || IsDiffDir(n) {
			continue
		}
		kept = append(kept, n)
	}
	sort.Strings(kept)
	return kept
}

// objectKey joins key segments with '/', skipping empty ones
func objectKey(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// uploadTree archives srcDir through put, one object per file
func uploadTree(ctx context.Context, srcDir, prefix string, put func(ctx context.Context, key, path string) error) error {
	files, err := sourceFiles(srcDir)
	if err != nil {
		return err
	}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := put(ctx, objectKey(prefix, rel), filepath.Join(srcDir, filepath.FromSlash(rel))); err != nil {
			return fmt.Errorf("upload %s: %w", rel, err)
		}
	}
	return nil
}
