package shmoo

import (
	"fmt"
	"regexp"
	"strings"
)

// Options carries the instrument dialect. Labels are data so new firmware
// variants only need configuration.
type Options struct {
	// GridLabels are the trimmed line contents that open the grid.
	GridLabels []string
	// YAxisLabels are the channel names accepted on the Y-Axis line.
	YAxisLabels []string
	// BoundaryLabels are the voltage-axis labels that start a boundary row.
	BoundaryLabels []string
	// PlotStartMarker opens the section rewritten by RecalculateRanges.
	PlotStartMarker string
	RangeStart      float64
	RangeStep       float64
	// MarginColumnOffset is the text column of the plot origin, used when
	// the X nominal value lies outside the swept range.
	MarginColumnOffset int
}

// DefaultOptions returns the dialect of the stock instrument firmware
func DefaultOptions() Options {
	return Options{
		GridLabels:         []string{"VDD", "Vvdd12", "Vvdd12_otp"},
		YAxisLabels:        []string{"VDD", "Vvdd12", "Vvdd12_otp"},
		BoundaryLabels:     []string{"V"},
		PlotStartMarker:    "**** Shmoo Plot",
		RangeStart:         5.0,
		RangeStep:          5.0,
		MarginColumnOffset: 12,
	}
}

// Engine parses and transforms shmoo plots for one dialect. It holds no
// state beyond its compiled patterns and is safe to share.
type Engine struct {
	opts       Options
	gridLabels map[string]struct{}
	xAxis      *regexp.Regexp
	yAxis      *regexp.Regexp
	boundary   *regexp.Regexp
}

// NewEngine compiles the dialect patterns
func NewEngine(opts Options) (*Engine, error) {
	if len(opts.GridLabels) == 0 {
		return nil, fmt.Errorf("at least one grid label is required")
	}
	if len(opts.YAxisLabels) == 0 {
		return nil, fmt.Errorf("at least one Y-axis label is required")
	}
	if len(opts.BoundaryLabels) == 0 {
		return nil, fmt.Errorf("at least one boundary label is required")
	}
	if opts.RangeStep == 0 {
		return nil, fmt.Errorf("range step must not be zero")
	}

	labels := make(map[string]struct{}, len(opts.GridLabels))
	for _, l := range opts.GridLabels {
		labels[strings.TrimSpace(l)] = struct{}{}
	}

	const axisTail = `\s*\[\s*([-+]?\d*\.?\d+)\s*\.\.\s*([-+]?\d*\.?\d+)\s*([A-Za-z]*)\s*\]` +
		`\s*step\s*([-+]?\d*\.?\d+)\s*[A-Za-z]*\s*\(\s*([-+]?\d*\.?\d+)`

	yAxis, err := regexp.Compile(`(?i)Y-Axis\s*:\s*(` + alternation(opts.YAxisLabels) + `)` + axisTail)
	if err != nil {
		return nil, fmt.Errorf("compile Y-axis pattern: %w", err)
	}
	boundary, err := regexp.Compile(`^\s*(?:` + alternation(opts.BoundaryLabels) + `)\s+[+*]`)
	if err != nil {
		return nil, fmt.Errorf("compile boundary pattern: %w", err)
	}

	return &Engine{
		opts:       opts,
		gridLabels: labels,
		xAxis:      regexp.MustCompile(`X-Axis\s*:\s*(\S+)` + axisTail),
		yAxis:      yAxis,
		boundary:   boundary,
	}, nil
}

// Options returns the dialect the engine was built with
func (e *Engine) Options() Options {
	return e.opts
}

// IsBoundaryRow reports whether line is a voltage-axis boundary row such as
// "  V   +---------+*--------+".
func (e *Engine) IsBoundaryRow(line string) bool {
	return e.boundary.MatchString(line)
}

func alternation(labels []string) string {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		quoted = append(quoted, regexp.QuoteMeta(strings.TrimSpace(l)))
	}
	return strings.Join(quoted, "|")
}
