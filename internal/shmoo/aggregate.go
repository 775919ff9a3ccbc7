package shmoo

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/shmoo/pkg/models"
)

// precedence orders symbols for OR and for breaking majority ties
var precedence = []models.Symbol{models.Pass, models.Marginal, models.Fail}

// Aggregate combines site grids into one under mode. Rows are keyed by the
// first grid; each key takes contributions only from grids that hold it.
// Header and footer come from the first grid.
func Aggregate(grids []*models.ShmooGrid, mode models.Mode) (*models.ShmooGrid, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("aggregate %s: no input grids", mode)
	}

	var combine func([][]models.Symbol) ([]models.Symbol, bool)
	switch mode {
	case models.ModeOR:
		combine = combineOR
	case models.ModeAND:
		combine = combineAND
	case models.ModeMajority:
		combine = combineMajority
	default:
		return nil, fmt.Errorf("aggregate: unsupported mode %q", mode)
	}

	first := grids[0]
	out := &models.ShmooGrid{
		Source:     first.Source,
		Header:     first.Header,
		Footer:     first.Footer,
		CellColumn: formattedCellColumn,
	}
	for _, key := range first.Keys() {
		var inputs [][]models.Symbol
		marginal := false
		for _, g := range grids {
			row, ok := g.Row(key)
			if !ok {
				continue
			}
			inputs = append(inputs, row.Cells)
			marginal = marginal || row.Marginal
		}
		cells, ok := combine(inputs)
		if !ok {
			log.Warn().
				Str("mode", string(mode)).
				Str("voltage", key.String()).
				Err(ErrRowLengthMismatch).
				Msg("Skipping row with inconsistent widths")
			continue
		}
		out.Add(models.GridRow{Voltage: key.Volts(), Cells: cells, Marginal: marginal})
	}
	out.SortDescending()
	return out, nil
}

func widest(rows [][]models.Symbol) int {
	n := 0
	for _, r := range rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// column returns the symbols at position i, padding short rows with Blank
func column(rows [][]models.Symbol, i int) []models.Symbol {
	col := make([]models.Symbol, len(rows))
	for j, r := range rows {
		if i < len(r) {
			col[j] = r[i]
		} else {
			col[j] = models.Blank
		}
	}
	return col
}

func contains(col []models.Symbol, s models.Symbol) bool {
	for _, c := range col {
		if c == s {
			return true
		}
	}
	return false
}

func combineOR(rows [][]models.Symbol) ([]models.Symbol, bool) {
	out := make([]models.Symbol, widest(rows))
	for i := range out {
		col := column(rows, i)
		out[i] = models.Blank
		for _, s := range precedence {
			if contains(col, s) {
				out[i] = s
				break
			}
		}
	}
	return out, true
}

// combineAND requires equal widths; a mismatch drops the row
func combineAND(rows [][]models.Symbol) ([]models.Symbol, bool) {
	if len(rows) == 0 {
		return nil, true
	}
	width := len(rows[0])
	for _, r := range rows[1:] {
		if len(r) != width {
			return nil, false
		}
	}

	out := make([]models.Symbol, width)
	for i := range out {
		col := column(rows, i)
		allPass := true
		for _, c := range col {
			if c != models.Pass {
				allPass = false
				break
			}
		}
		switch {
		case allPass:
			out[i] = models.Pass
		case contains(col, models.Marginal):
			out[i] = models.Marginal
		case contains(col, models.Fail):
			out[i] = models.Fail
		default:
			out[i] = models.Blank
		}
	}
	return out, true
}

func combineMajority(rows [][]models.Symbol) ([]models.Symbol, bool) {
	out := make([]models.Symbol, widest(rows))
	for i := range out {
		out[i] = majority(column(rows, i))
	}
	return out, true
}

// majority returns the most frequent non-Blank symbol. Ties go to Pass, then
// Marginal, then Fail, then the lowest byte value.
func majority(col []models.Symbol) models.Symbol {
	counts := make(map[models.Symbol]int)
	best := 0
	for _, c := range col {
		if c == models.Blank {
			continue
		}
		counts[c]++
		if counts[c] > best {
			best = counts[c]
		}
	}
	if best == 0 {
		return models.Blank
	}
	for _, s := range precedence {
		if counts[s] == best {
			return s
		}
	}
	winner := models.Symbol(0xff)
	for s, n := range counts {
		if n == best && s < winner {
			winner = s
		}
	}
	return winner
}
