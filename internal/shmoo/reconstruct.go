package shmoo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/RMahshie/shmoo/pkg/models"
)

// labeledRow matches a data row that already carries its voltage label
var labeledRow = regexp.MustCompile(`^(\s*)(\d+\.\d+)\s`)

const stepTolerance = 1e-6

// Reconstruct returns a copy of lines in which every grid row that lost its
// voltage label has it restored. Labels are inferred by walking the sweep
// from y.Start; a labeled row resets the walk. The transform is idempotent.
func (e *Engine) Reconstruct(lines []string, y models.AxisSpec) ([]string, error) {
	if y.Step == 0 {
		return nil, fmt.Errorf("%w: step is zero", ErrMalformedHeader)
	}
	block, err := e.SplitBlock(lines)
	if err != nil {
		return nil, err
	}

	indent, ok := labelIndent(block.Data)
	if !ok {
		return block.Lines(), nil
	}

	data := make([]string, len(block.Data))
	current := y.Start
	for i, line := range block.Data {
		data[i] = line
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := labeledRow.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				current = v
			}
			continue
		}
		current = advance(current, y)
		data[i] = labelRow(indent, current, line)
	}

	out := make([]string, 0, len(lines))
	out = append(out, block.Header...)
	out = append(out, data...)
	return append(out, block.Footer...), nil
}

// advance steps current once along the sweep without passing its far end
func advance(current float64, y models.AxisSpec) float64 {
	next := current + y.Step
	switch {
	case y.Step < 0 && next < y.End-stepTolerance:
		return y.End
	case y.Step > 0 && next > y.End+stepTolerance:
		return y.End
	}
	return roundTo(next, 9)
}

func labelRow(indent string, v float64, line string) string {
	body := strings.TrimLeft(line, " \t")
	sep := "   "
	if strings.HasPrefix(body, string(models.MarginalMarker)) {
		sep = "  "
	}
	return indent + fmt.Sprintf("%.3f", v) + sep + body
}

// labelIndent returns the leading whitespace used for labels. It comes from
// the first labeled row; with none, it is derived from the first unlabeled
// row so the label ends where the instrument would have put it.
func labelIndent(data []string) (string, bool) {
	first := ""
	for _, line := range data {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := labeledRow.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
		if first == "" {
			first = line
		}
	}
	if first == "" {
		return "", false
	}
	width := len(first) - len(strings.TrimLeft(first, " \t"))
	body := strings.TrimLeft(first, " \t")
	labelWidth := len("0.000   ")
	if strings.HasPrefix(body, string(models.MarginalMarker)) {
		labelWidth--
	}
	return strings.Repeat(" ", int(math.Max(0, float64(width-labelWidth)))), true
}
