package shmoo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/shmoo/pkg/models"
)

func TestSplitBlock(t *testing.T) {
	e := newTestEngine(t)
	lines := SplitLines(siteLog)

	block, err := e.SplitBlock(lines)
	require.NoError(t, err)

	assert.Equal(t, "    ---", block.Header[len(block.Header)-1])
	assert.Equal(t, []string{
		"    0.940   PPPPPPPPPP (5.000..50.000)",
		"    0.920   ..PPPPPPPP (15.000..50.000)",
		"    0.900  *!.PPPPPPPP (15.000..50.000)",
	}, block.Data)
	assert.Equal(t, "        V   +---*-----+", block.Footer[0])
	assert.Equal(t, lines, block.Lines())
}

func TestSplitBlock_EndsAtDedentedLine(t *testing.T) {
	e := newTestEngine(t)
	lines := []string{
		"Vvdd12",
		"------",
		"  0.940   PPPP",
		"",
		"  0.920   ..PP",
		"Site 1: done",
		"  0.900   ....",
	}

	block, err := e.SplitBlock(lines)
	require.NoError(t, err)
	assert.Equal(t, lines[2:5], block.Data)
	assert.Equal(t, lines[5:], block.Footer)
}

func TestSplitBlock_MissingMarker(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.SplitBlock([]string{"  X-Axis: nothing", "    0.940   PPPP"})
	assert.ErrorIs(t, err, ErrMissingGridMarker)
}

func TestParseGrid(t *testing.T) {
	e := newTestEngine(t)

	grid, err := e.ParseGrid("site1.log", SplitLines(siteLog))
	require.NoError(t, err)

	want := []models.GridRow{
		row(0.94, "PPPPPPPPPP"),
		row(0.92, "..PPPPPPPP"),
		row(0.90, "*!.PPPPPPPP"),
	}
	if diff := cmp.Diff(want, grid.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "site1.log", grid.Source)
	assert.Equal(t, 12, grid.CellColumn)
	assert.Equal(t, []models.VoltageKey{940, 920, 900}, grid.Keys())
}

func TestParseGrid_DropsUnparsableRows(t *testing.T) {
	e := newTestEngine(t)
	lines := []string{
		"    VDD",
		"    ---",
		"    0.940   PPPP (5.000..20.000)",
		"    garbage in the grid",
		"",
		"    0.920   PPXP",
		"    0.900   ..PP",
		"        V   +---*",
	}

	grid, err := e.ParseGrid("site2.log", lines)
	require.NoError(t, err)
	assert.Equal(t, []models.VoltageKey{940, 900}, grid.Keys())
}

func TestParseGrid_NoRows(t *testing.T) {
	e := newTestEngine(t)

	grid, err := e.ParseGrid("empty.log", []string{"VDD", "---", "  V   +---"})
	require.NoError(t, err)
	assert.Empty(t, grid.Rows)
	assert.Equal(t, 0, grid.CellColumn)
}

func TestParseRow(t *testing.T) {
	tests := []struct {
		line     string
		want     models.GridRow
		wantCol  int
		wantFail bool
	}{
		{line: "    0.980  *!.PPPP (15.000..150.000)", want: row(0.98, "*!.PPPP"), wantCol: 12},
		{line: "  0.900   PPPP...... (15.000..      )", want: row(0.9, "PPPP......"), wantCol: 10},
		{line: "1.100 P", want: row(1.1, "P"), wantCol: 6},
		{line: "    0.980   PP PP", wantFail: true},
		{line: "    V   +----", wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, col, err := parseRow(tt.line)
			if tt.wantFail {
				assert.ErrorIs(t, err, ErrUnparsableRow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCol, col)
		})
	}
}
