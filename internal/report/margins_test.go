package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/RMahshie/shmoo/pkg/models"
)

func TestWriteMargins(t *testing.T) {
	rep := &models.RunReport{
		DumpPath:   "/data/in/lot7.log",
		OutputRoot: "/data/plots",
		Tests: []models.TestReport{
			{
				Test:  "Func",
				Files: 2,
				Margins: []models.MarginResult{
					{File: "lot7_Func_site1.log", XOperationCenter: 25, YOperationCenter: 0.92, XMargin: 10, YMargin: 0.04},
					{File: "lot7_Func_site2.log", XOperationCenter: 25, YOperationCenter: 0.92, XMargin: 10, YMargin: 0.02},
				},
			},
			{
				Test:  "Broken",
				Files: 1,
				Diagnostics: []models.Diagnostic{
					{File: "lot7_Broken_site1.log", Stage: "margins", Kind: "malformed_header", Message: "Y-Axis line not found"},
				},
			},
		},
	}
	path := filepath.Join(t.TempDir(), "reports", "lot7.xlsx")

	require.NoError(t, WriteMargins(path, rep))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Func", "Broken", "Diagnostics"}, f.GetSheetList())

	rows, err := f.GetRows("Func")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "File", rows[0][0])
	assert.Equal(t, []string{"lot7_Func_site1.log", "25", "0.92", "10", "0.04"}, rows[1])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "/data/in/lot7.log", summary[0][1])
	assert.Equal(t, []string{"Func", "2", "2", "0", "Func"}, summary[5])
	assert.Equal(t, []string{"Broken", "1", "0", "1", "Broken"}, summary[6])

	diags, err := f.GetRows("Diagnostics")
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, "malformed_header", diags[1][2])
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{"Summary": true}

	assert.Equal(t, "Func", uniqueSheetName("Func", used))
	assert.Equal(t, "Func~2", uniqueSheetName("Func", used))
	assert.Equal(t, "a_b_", uniqueSheetName("a[b]", used))
	assert.Equal(t, "Summary~2", uniqueSheetName("Summary", used))

	long := strings.Repeat("x", 40)
	first := uniqueSheetName(long, used)
	second := uniqueSheetName(long, used)
	assert.Len(t, first, 31)
	assert.Len(t, second, 31)
	assert.True(t, strings.HasSuffix(second, "~2"))
}
