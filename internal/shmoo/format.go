package shmoo

import (
	"fmt"
	"strings"

	"github.com/RMahshie/shmoo/pkg/models"
)

// RangePlaceholder is written in place of a per-row range that is not
// recomputed after aggregation.
const RangePlaceholder = "(15.000..      )"

// formattedCellColumn is where cells start in rows written by FormatRow
const formattedCellColumn = 10

// FormatRow renders one row as "%7.3f" + three spaces (or "  *" for a
// marginal row) + cells + the range placeholder.
func FormatRow(voltage float64, cells string, marginal bool) string {
	sep := "   "
	if marginal {
		sep = "  *"
	}
	return fmt.Sprintf("%7.3f%s%s %s", voltage, sep, cells, RangePlaceholder)
}

// FormatGrid renders a grid with its header and footer
func FormatGrid(g *models.ShmooGrid) []string {
	out := make([]string, 0, len(g.Header)+len(g.Rows)+len(g.Footer))
	out = append(out, g.Header...)
	for _, r := range g.Rows {
		out = append(out, FormatRow(r.Voltage, r.Text(), r.Marginal))
	}
	return append(out, g.Footer...)
}

// FormatDiff renders a difference grid with its header and footer
func FormatDiff(d *models.DiffGrid) []string {
	out := make([]string, 0, len(d.Header)+len(d.Rows)+len(d.Footer))
	out = append(out, d.Header...)
	for _, r := range d.Rows {
		out = append(out, FormatRow(r.Voltage, r.Text(), r.Marginal))
	}
	return append(out, d.Footer...)
}

// SplitLines splits file content into lines without their terminators.
// A trailing newline yields a final empty element so JoinLines restores it.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}

// JoinLines is the inverse of SplitLines; the result always ends in a newline
func JoinLines(lines []string) string {
	s := strings.Join(lines, "\n")
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
