package shmoo

import (
	"fmt"
	"math"
	"strings"

	"github.com/RMahshie/shmoo/pkg/models"
)

// Margins measures how far the first passing timing lies from the nominal
// timing and how many passing voltage steps lie at or beyond the nominal
// voltage. The grid must be fully labeled.
//
//	0000000000111
//	0123456789012
//	    0.980  *!.PPPPPPPPPPPPPPPPPPPPPPPPPPPP (15.000..150.000)
//	        V   +---------+*--------+--------+
func (e *Engine) Margins(axes models.Axes, grid *models.ShmooGrid) (models.MarginResult, error) {
	result := models.MarginResult{
		File:             grid.Source,
		XOperationCenter: axes.X.Nominal,
		YOperationCenter: axes.Y.Nominal,
	}

	key := models.KeyOf(axes.Y.Nominal)
	start, ok := grid.RowIndex(key)
	if !ok {
		return result, fmt.Errorf("%w: no row at nominal voltage %s", ErrMarginLookup, key)
	}
	nominal := grid.Rows[start]

	first, err := e.firstPassCell(axes.X, grid, nominal)
	if err != nil {
		return result, err
	}
	firstPassTiming := axes.X.Start + float64(first)*axes.X.Step
	result.XMargin = roundTo(axes.X.Nominal-firstPassTiming, 6)

	col, err := e.markerCell(axes.X, grid)
	if err != nil {
		return result, err
	}
	count := 0
	for _, row := range grid.Rows[start:] {
		if col >= len(row.Cells) || row.Cells[col] != models.Pass {
			break
		}
		count++
	}
	result.YMargin = roundTo(float64(count)*math.Abs(axes.Y.Step), 6)
	return result, nil
}

// firstPassCell returns the cell index used as the first passing timing.
// An out-of-range X nominal pins it to the plot origin.
func (e *Engine) firstPassCell(x models.AxisSpec, grid *models.ShmooGrid, row models.GridRow) (int, error) {
	if x.OutOfRange {
		cell := e.opts.MarginColumnOffset - grid.CellColumn
		if cell < 0 {
			cell = 0
		}
		return cell, nil
	}
	for i, c := range row.Cells {
		if c == models.Pass {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no Pass cell at nominal voltage %.3f", ErrMarginLookup, row.Voltage)
}

// markerCell maps the nominal-timing marker of the boundary row to a cell
// index. The marker is '*', or the origin '+' when X is out of range.
func (e *Engine) markerCell(x models.AxisSpec, grid *models.ShmooGrid) (int, error) {
	marker := byte('*')
	if x.OutOfRange {
		marker = '+'
	}
	for _, line := range grid.Footer {
		if !e.IsBoundaryRow(line) {
			continue
		}
		loc := e.boundary.FindStringIndex(line)
		pos := strings.IndexByte(line[loc[1]-1:], marker)
		if pos < 0 {
			continue
		}
		cell := loc[1] - 1 + pos - grid.CellColumn
		if cell < 0 {
			return 0, fmt.Errorf("%w: marker column %d precedes the grid", ErrMarginLookup, loc[1]-1+pos)
		}
		return cell, nil
	}
	return 0, fmt.Errorf("%w: no boundary row with %q marker", ErrMarginLookup, marker)
}
