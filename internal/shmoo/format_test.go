package shmoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/shmoo/pkg/models"
)

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "  0.900   PPPP...... (15.000..      )", FormatRow(0.9, "PPPP......", false))
	assert.Equal(t, "  0.980  *!.PPPP (15.000..      )", FormatRow(0.98, "!.PPPP", true))
	assert.Equal(t, " 12.500   P (15.000..      )", FormatRow(12.5, "P", false))
}

func TestFormatGrid_ParsesBack(t *testing.T) {
	e := newTestEngine(t)
	g := gridOf("agg", row(0.94, "PPPP"), row(0.92, "*..PP"))

	lines := FormatGrid(g)
	assert.Equal(t, []string{
		"    VDD",
		"    ---",
		"  0.940   PPPP (15.000..      )",
		"  0.920  *..PP (15.000..      )",
		"        V   +---*-----+",
	}, lines)

	parsed, err := e.ParseGrid("agg", lines)
	require.NoError(t, err)
	assert.Equal(t, g.Rows, parsed.Rows)
	assert.Equal(t, formattedCellColumn, parsed.CellColumn)
}

func TestFormatDiff(t *testing.T) {
	d := &models.DiffGrid{
		Header: []string{"VDD", "---"},
		Rows: []models.DiffRow{
			{Voltage: 0.94, Cells: []models.DiffCell{'.', 'X'}},
			{Voltage: 0.92, Cells: []models.DiffCell{'?', '?'}, Marginal: true, Placeholder: true},
		},
		Footer: []string{"  V   +-"},
	}

	assert.Equal(t, []string{
		"VDD",
		"---",
		"  0.940   .X (15.000..      )",
		"  0.920  *?? (15.000..      )",
		"  V   +-",
	}, FormatDiff(d))
}

func TestSplitJoinLines(t *testing.T) {
	lines := SplitLines("a\r\nb\n\nc\n")
	assert.Equal(t, []string{"a", "b", "", "c", ""}, lines)
	assert.Equal(t, "a\nb\n\nc\n", JoinLines(lines))
	assert.Equal(t, "x\ny\n", JoinLines([]string{"x", "y"}))
}
