package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Symbol is one cell of a shmoo grid
type Symbol byte

const (
	Pass     Symbol = 'P'
	Fail     Symbol = '.'
	Marginal Symbol = '!'
	Blank    Symbol = ' '
)

// MarginalMarker prefixes the symbol run of a row flagged as marginal
const MarginalMarker = '*'

// DiffCell is one cell of a difference grid
type DiffCell byte

const (
	Match       DiffCell = '.'
	Mismatch    DiffCell = 'X'
	Placeholder DiffCell = '?'
)

// Symbols converts a symbol run such as "PP..!" into cells
func Symbols(s string) []Symbol {
	cells := make([]Symbol, len(s))
	for i := 0; i < len(s); i++ {
		cells[i] = Symbol(s[i])
	}
	return cells
}

// VoltageKey identifies a grid row at 3-decimal precision (millivolts)
type VoltageKey int64

// KeyOf rounds a voltage to its row key
func KeyOf(v float64) VoltageKey {
	return VoltageKey(math.Round(v * 1000))
}

// Volts returns the voltage the key stands for
func (k VoltageKey) Volts() float64 {
	return float64(k) / 1000
}

func (k VoltageKey) String() string {
	return fmt.Sprintf("%.3f", k.Volts())
}

// AxisSpec describes one swept axis as printed in the log header:
// [Start .. End Unit] step Step Unit (Nominal Unit)
type AxisSpec struct {
	Label      string  `json:"label"`
	Unit       string  `json:"unit"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Step       float64 `json:"step"`
	Nominal    float64 `json:"nominal"`
	OutOfRange bool    `json:"out_of_range"`
}

// Min returns the lower bound of the closed interval
func (a AxisSpec) Min() float64 {
	return math.Min(a.Start, a.End)
}

// Max returns the upper bound of the closed interval
func (a AxisSpec) Max() float64 {
	return math.Max(a.Start, a.End)
}

// Axes holds both swept axes of a plot
type Axes struct {
	X AxisSpec `json:"x"`
	Y AxisSpec `json:"y"`
}

// GridRow is one voltage row of a shmoo grid
type GridRow struct {
	Voltage  float64
	Cells    []Symbol
	Marginal bool
}

// Key returns the row's voltage key
func (r GridRow) Key() VoltageKey {
	return KeyOf(r.Voltage)
}

// Text returns the cells as a symbol string
func (r GridRow) Text() string {
	var b strings.Builder
	b.Grow(len(r.Cells))
	for _, c := range r.Cells {
		b.WriteByte(byte(c))
	}
	return b.String()
}

// ShmooGrid is a parsed plot: rows in file order plus the verbatim text
// surrounding them.
type ShmooGrid struct {
	Source string
	Header []string
	Footer []string
	// CellColumn is the text column of the first cell in a data row.
	CellColumn int
	Rows       []GridRow

	index map[VoltageKey]int
}

// Add appends a row, replacing an earlier row with the same key
func (g *ShmooGrid) Add(row GridRow) {
	idx := g.lookup()
	if i, ok := idx[row.Key()]; ok {
		g.Rows[i] = row
		return
	}
	idx[row.Key()] = len(g.Rows)
	g.Rows = append(g.Rows, row)
}

// Row returns the row stored under key
func (g *ShmooGrid) Row(key VoltageKey) (GridRow, bool) {
	i, ok := g.lookup()[key]
	if !ok {
		return GridRow{}, false
	}
	return g.Rows[i], true
}

// RowIndex returns the file-order position of key
func (g *ShmooGrid) RowIndex(key VoltageKey) (int, bool) {
	i, ok := g.lookup()[key]
	return i, ok
}

// Keys returns the row keys in file order
func (g *ShmooGrid) Keys() []VoltageKey {
	keys := make([]VoltageKey, len(g.Rows))
	for i, r := range g.Rows {
		keys[i] = r.Key()
	}
	return keys
}

// SameKeys reports whether both grids hold exactly the same voltage keys
func (g *ShmooGrid) SameKeys(other *ShmooGrid) bool {
	if len(g.lookup()) != len(other.lookup()) {
		return false
	}
	for k := range g.lookup() {
		if _, ok := other.lookup()[k]; !ok {
			return false
		}
	}
	return true
}

// SortDescending orders rows by voltage, highest first
func (g *ShmooGrid) SortDescending() {
	sort.SliceStable(g.Rows, func(i, j int) bool {
		return g.Rows[i].Key() > g.Rows[j].Key()
	})
	g.index = nil
}

func (g *ShmooGrid) lookup() map[VoltageKey]int {
	if g.index == nil || len(g.index) != len(g.Rows) {
		g.index = make(map[VoltageKey]int, len(g.Rows))
		for i, r := range g.Rows {
			g.index[r.Key()] = i
		}
	}
	return g.index
}

// DiffRow is one voltage row of a difference grid
type DiffRow struct {
	Voltage  float64
	Cells    []DiffCell
	Marginal bool
	// Placeholder is set when the inputs could not be compared cell by cell.
	Placeholder bool
}

// Text returns the cells as a string
func (r DiffRow) Text() string {
	var b strings.Builder
	b.Grow(len(r.Cells))
	for _, c := range r.Cells {
		b.WriteByte(byte(c))
	}
	return b.String()
}

// DiffGrid is the cell-wise comparison of an aggregate against one site
type DiffGrid struct {
	Header []string
	Footer []string
	Rows   []DiffRow
}

// Mode selects how site grids are combined
type Mode string

const (
	ModeOR       Mode = "OR"
	ModeAND      Mode = "AND"
	ModeMajority Mode = "Majority"
)

// Modes lists every aggregation mode in processing order
var Modes = []Mode{ModeOR, ModeAND, ModeMajority}

// ParseMode accepts a mode name case-insensitively
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "or":
		return ModeOR, nil
	case "and":
		return ModeAND, nil
	case "majority", "majorityvote", "mj":
		return ModeMajority, nil
	}
	return "", fmt.Errorf("unsupported aggregation mode %q: choose OR, AND or Majority", s)
}

// DiffLabel names the directory suffix used for diffs against this mode
func (m Mode) DiffLabel() string {
	if m == ModeMajority {
		return "MajorityVote_XOR"
	}
	return string(m) + "_XOR"
}

// MarginResult holds the operating point and margins measured for one file
type MarginResult struct {
	File             string  `json:"file" doc:"Site log file name"`
	XOperationCenter float64 `json:"x_operation_center" doc:"Nominal timing value"`
	YOperationCenter float64 `json:"y_operation_center" doc:"Nominal voltage snapped to the sweep grid"`
	XMargin          float64 `json:"x_margin" doc:"Distance from nominal timing to the first passing timing"`
	YMargin          float64 `json:"y_margin" doc:"Passing voltage span below the nominal voltage"`
}
