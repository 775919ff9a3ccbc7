package shmoo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/shmoo/pkg/models"
)

// gridRow matches "   0.980  *!.PPPPPPPP (15.000..150.000)": voltage,
// optional marginal marker, symbol run and an ignored annotation.
var gridRow = regexp.MustCompile(`^\s*(\d+\.\d+)\s+(\*?)([P.!]+)\s*(?:\(.*\))?\s*$`)

// ParseGrid parses a whole plot file into a typed grid. Data lines that do
// not match the row grammar are dropped with a warning.
func (e *Engine) ParseGrid(source string, lines []string) (*models.ShmooGrid, error) {
	block, err := e.SplitBlock(lines)
	if err != nil {
		return nil, err
	}

	grid := &models.ShmooGrid{
		Source:     source,
		Header:     block.Header,
		Footer:     block.Footer,
		CellColumn: -1,
	}
	for _, line := range block.Data {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, col, err := parseRow(line)
		if err != nil {
			log.Warn().Err(err).Str("file", source).Str("line", strings.TrimSpace(line)).Msg("Dropping grid row")
			continue
		}
		if grid.CellColumn < 0 {
			grid.CellColumn = col
		}
		grid.Add(row)
	}
	if grid.CellColumn < 0 {
		grid.CellColumn = 0
	}
	return grid, nil
}

// parseRow returns the row and the text column of its first cell
func parseRow(line string) (models.GridRow, int, error) {
	idx := gridRow.FindStringSubmatchIndex(line)
	if idx == nil {
		return models.GridRow{}, 0, ErrUnparsableRow
	}
	v, err := strconv.ParseFloat(line[idx[2]:idx[3]], 64)
	if err != nil {
		return models.GridRow{}, 0, fmt.Errorf("%w: %v", ErrUnparsableRow, err)
	}
	return models.GridRow{
		Voltage:  v,
		Cells:    models.Symbols(line[idx[6]:idx[7]]),
		Marginal: idx[5] > idx[4],
	}, idx[6], nil
}
