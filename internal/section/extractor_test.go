package section

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const separator = "---------------- TestMethod Shmoo ----------------"

var dump = strings.Join([]string{
	"tester boot banner",
	"Site 0: ignored preamble",
	separator,
	"",
	"# generated",
	" TITLE : Func/Test:1",
	"--- site 1 / 2 (",
	"WARNING: retest",
	"  X-Axis:   Period    [   5.000 ..  20.000 ns  ] step   5.000 ns  (  10.000 ns  )",
	"  Y-Axis:   VDD       [   0.940 ..   0.900 V   ] step  -0.020 V   (   0.920 V   )",
	"    VDD",
	"    ---",
	"    0.940   PPPP (5.000..20.000)",
	"        V   +-*-+",
	"            5.000",
	"            ns",
	"            ticks",
	"  after ticks",
	"Site 1: PASSED",
	"  junk after terminator",
	separator,
	" TITLE : Func/Test:1",
	"--- SITE 2 / 2 (",
	"    VDD",
	"    ---",
	"    0.940   PP.. (5.000..10.000)",
	separator,
	" no title line",
	"--- site 3 / 4 (",
	"    VDD",
	separator,
	" TITLE : Orphan",
	"    no site line",
	separator,
	"Site 4: nothing left",
}, "\r\n")

func newDefaultExtractor(t *testing.T) *Extractor {
	t.Helper()
	x, err := NewExtractor(DefaultOptions())
	require.NoError(t, err)
	return x
}

func TestSplit(t *testing.T) {
	x := newDefaultExtractor(t)

	sections := x.Split(dump)
	require.Len(t, sections, 3)

	assert.Equal(t, "Func_Test_1", sections[0].Title)
	assert.Equal(t, 1, sections[0].Site)
	assert.Equal(t, []string{
		" TITLE : Func/Test:1",
		"--- site 1 / 2 (",
		"  X-Axis:   Period    [   5.000 ..  20.000 ns  ] step   5.000 ns  (  10.000 ns  )",
		"  Y-Axis:   VDD       [   0.940 ..   0.900 V   ] step  -0.020 V   (   0.920 V   )",
		"    VDD",
		"    ---",
		"    0.940   PPPP (5.000..20.000)",
		"        V   +-*-+",
		"  after ticks",
	}, sections[0].Lines)

	assert.Equal(t, "Func_Test_1", sections[1].Title)
	assert.Equal(t, 2, sections[1].Site)

	assert.Equal(t, "NoTitle", sections[2].Title)
	assert.Equal(t, 3, sections[2].Site)
}

func TestSplit_NoSeparator(t *testing.T) {
	x := newDefaultExtractor(t)
	assert.Empty(t, x.Split(" TITLE : Func\n--- site 1 / 1 (\n"))
}

func TestExtract(t *testing.T) {
	x := newDefaultExtractor(t)
	root := t.TempDir()
	dumpPath := filepath.Join(t.TempDir(), "lot42.txt")
	require.NoError(t, os.WriteFile(dumpPath, []byte(dump), 0o644))

	dirs, err := x.Extract(dumpPath, root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "lot42", "Func_Test_1"),
		filepath.Join(root, "lot42", "NoTitle"),
	}, dirs)

	site1, err := os.ReadFile(filepath.Join(root, "lot42", "Func_Test_1", "lot42_Func_Test_1_site1.log"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(site1), " TITLE : Func/Test:1\n"))
	assert.True(t, strings.HasSuffix(string(site1), "  after ticks\n"))
	assert.NotContains(t, string(site1), "\r")

	_, err = os.Stat(filepath.Join(root, "lot42", "Func_Test_1", "lot42_Func_Test_1_site2.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "lot42", "NoTitle", "lot42_NoTitle_site3.log"))
	assert.NoError(t, err)
}

// captureLog redirects the global logger into a buffer for one test
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func siteDump(title string, site int, row string) string {
	return strings.Join([]string{
		separator,
		" TITLE : " + title,
		"--- site " + string(rune('0'+site)) + " / 2 (",
		"    VDD",
		"    ---",
		row,
	}, "\n")
}

func TestExtract_UnwritableSection(t *testing.T) {
	x := newDefaultExtractor(t)
	logs := captureLog(t)
	root := t.TempDir()
	dumpPath := filepath.Join(t.TempDir(), "lot.log")
	longTitle := strings.Repeat("T", 300)
	content := siteDump("Good", 1, "    0.940   PPPP") + "\n" + siteDump(longTitle, 2, "    0.940   PPPP") + "\n"
	require.NoError(t, os.WriteFile(dumpPath, []byte(content), 0o644))

	dirs, err := x.Extract(dumpPath, root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "lot", "Good")}, dirs)
	assert.FileExists(t, filepath.Join(root, "lot", "Good", "lot_Good_site1.log"))
	assert.Contains(t, logs.String(), "Failed to write section")
}

func TestExtract_DuplicateSection(t *testing.T) {
	x := newDefaultExtractor(t)
	logs := captureLog(t)
	root := t.TempDir()
	dumpPath := filepath.Join(t.TempDir(), "lot.log")
	content := siteDump("Func", 1, "    0.940   PPPP") + "\n" + siteDump("Func", 1, "    0.940   ....") + "\n"
	require.NoError(t, os.WriteFile(dumpPath, []byte(content), 0o644))

	dirs, err := x.Extract(dumpPath, root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "lot", "Func")}, dirs)

	site1, err := os.ReadFile(filepath.Join(root, "lot", "Func", "lot_Func_site1.log"))
	require.NoError(t, err)
	assert.Contains(t, string(site1), "0.940   ....")
	assert.Contains(t, logs.String(), "Duplicate test and site")
}

func TestExtract_MissingDump(t *testing.T) {
	x := newDefaultExtractor(t)
	_, err := x.Extract(filepath.Join(t.TempDir(), "absent.log"), t.TempDir())
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Func_Test":       "Func_Test",
		`a\b/c:d"e`:       "a_b_c_d_e",
		"x*?<>|y":         "x_y",
		"Vmin::<SCAN>":    "Vmin_SCAN_",
		"already_ok-name": "already_ok-name",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), in)
	}
}

func TestDumpBase(t *testing.T) {
	assert.Equal(t, "lot42", DumpBase("/data/in/lot42.txt"))
	assert.Equal(t, "lot42.part", DumpBase("lot42.part.log"))
	assert.Equal(t, "noext", DumpBase("noext"))
}

func TestNewExtractor_Errors(t *testing.T) {
	opts := DefaultOptions()
	opts.Separator = "("
	_, err := NewExtractor(opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.PlaceholderTitle = ""
	_, err = NewExtractor(opts)
	assert.Error(t, err)
}
