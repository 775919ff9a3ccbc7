package shmoo

import (
	"fmt"
	"strings"
	"unicode"
)

// Block is a plot file cut into the text before the grid, the grid rows and
// the text after the grid. Header and Footer are kept verbatim so output can
// be re-wrapped in the instrument's own framing.
type Block struct {
	Header []string
	Data   []string
	Footer []string
}

// Lines joins the block back into file order
func (b Block) Lines() []string {
	out := make([]string, 0, len(b.Header)+len(b.Data)+len(b.Footer))
	out = append(out, b.Header...)
	out = append(out, b.Data...)
	return append(out, b.Footer...)
}

// SplitBlock locates the grid inside lines. The grid opens at the first line
// whose trimmed content is a grid label; rows begin two lines below it. The
// grid closes at the first boundary row or the first non-empty line without
// leading whitespace, which starts the footer.
func (e *Engine) SplitBlock(lines []string) (Block, error) {
	marker := -1
	for i, line := range lines {
		if _, ok := e.gridLabels[strings.TrimSpace(line)]; ok {
			marker = i
			break
		}
	}
	if marker < 0 {
		return Block{}, fmt.Errorf("%w: expected one of %v", ErrMissingGridMarker, e.opts.GridLabels)
	}

	start := marker + 2
	if start > len(lines) {
		start = len(lines)
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if e.IsBoundaryRow(lines[i]) || isDedented(lines[i]) {
			end = i
			break
		}
	}

	return Block{
		Header: lines[:start:start],
		Data:   lines[start:end:end],
		Footer: lines[end:],
	}, nil
}

func isDedented(line string) bool {
	if line == "" {
		return false
	}
	return !unicode.IsSpace(rune(line[0]))
}
