package shmoo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RMahshie/shmoo/pkg/models"
)

// rangeRow matches "   0.740   !......P.PPPP (40.000..50.000)" and captures
// the label, the symbol run and the annotation body.
var rangeRow = regexp.MustCompile(`^(\s*\d+\.\d+)[\s*]+([!.P]+)\s+\(([^)]*)\)`)

var dashesOnly = regexp.MustCompile(`^\s*-+\s*$`)

// PassRange returns the timings of the first and last Pass cell of a symbol
// run on an axis starting at start with the given step.
func PassRange(symbols string, start, step float64) (lo, hi float64, ok bool) {
	first := strings.IndexByte(symbols, byte(models.Pass))
	if first < 0 {
		return 0, 0, false
	}
	last := strings.LastIndexByte(symbols, byte(models.Pass))
	return start + float64(first)*step, start + float64(last)*step, true
}

// RecalculateRanges rewrites the passing range annotation of every row in
// the plot section. The section closes at a boundary row, or at a dashes-only
// line once rows have been seen. Rows without a Pass cell keep their
// annotation.
func (e *Engine) RecalculateRanges(lines []string) []string {
	out := make([]string, len(lines))
	inPlot, seenRow := false, false
	for i, line := range lines {
		out[i] = line
		if !inPlot {
			inPlot = strings.Contains(line, e.opts.PlotStartMarker)
			seenRow = false
			continue
		}
		if e.IsBoundaryRow(line) || (seenRow && dashesOnly.MatchString(line)) {
			inPlot = false
			continue
		}

		idx := rangeRow.FindStringSubmatchIndex(line)
		if idx == nil {
			continue
		}
		seenRow = true
		lo, hi, ok := PassRange(line[idx[4]:idx[5]], e.opts.RangeStart, e.opts.RangeStep)
		if !ok {
			continue
		}
		out[i] = line[:idx[6]] + fmt.Sprintf("%.3f..%.3f", lo, hi) + line[idx[7]:]
	}
	return out
}
