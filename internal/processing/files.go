package processing

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RMahshie/shmoo/internal/shmoo"
	"github.com/RMahshie/shmoo/pkg/models"
)

// LogFiles returns the site log files of a test directory in name order
func LogFiles(testDir string) ([]string, error) {
	entries, err := os.ReadDir(testDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", testDir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".log") {
			files = append(files, filepath.Join(testDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// AggregatePath names the aggregate of testDir under mode. It sits beside
// the test directory so it is not picked up as a site file.
func AggregatePath(testDir string, mode models.Mode) string {
	testDir = filepath.Clean(testDir)
	name := filepath.Base(testDir) + "_aggregated_" + string(mode) + ".log"
	return filepath.Join(filepath.Dir(testDir), name)
}

// DiffDir names the directory holding diffs of testDir against label
func DiffDir(testDir, label string) string {
	return filepath.Clean(testDir) + "." + label
}

func readLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return shmoo.SplitLines(string(b)), nil
}

func writeLines(path string, lines []string) error {
	return os.WriteFile(path, []byte(shmoo.JoinLines(lines)), 0o644)
}
