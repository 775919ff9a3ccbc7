package section

import (
	"fmt"
	"regexp"
)

// Mode is the phase of the line filter
type Mode int

const (
	// Normal keeps lines except dropped prefixes.
	Normal Mode = iota
	// Skipping discards the next Remaining lines after a boundary row.
	Skipping
	// Terminated discards every remaining line of the section.
	Terminated
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "NORMAL"
	case Skipping:
		return "SKIPPING"
	case Terminated:
		return "TERMINATED"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// State is the filter state carried from one line to the next
type State struct {
	Mode      Mode
	Remaining int
}

// Filter decides which lines of a section survive extraction. It is
// immutable; the per-line state lives in State values.
type Filter struct {
	boundary   *regexp.Regexp
	terminator *regexp.Regexp
	drop       []*regexp.Regexp
	skip       int
}

// NewFilter compiles the filter patterns
func NewFilter(boundary, terminator string, drop []string, skip int) (*Filter, error) {
	if skip < 0 {
		return nil, fmt.Errorf("skip count must not be negative, got %d", skip)
	}
	f := &Filter{skip: skip}
	var err error
	if f.boundary, err = regexp.Compile(boundary); err != nil {
		return nil, fmt.Errorf("compile boundary pattern: %w", err)
	}
	if f.terminator, err = regexp.Compile(terminator); err != nil {
		return nil, fmt.Errorf("compile terminator pattern: %w", err)
	}
	for _, p := range drop {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile drop pattern %q: %w", p, err)
		}
		f.drop = append(f.drop, re)
	}
	return f, nil
}

// Transition consumes one line and reports whether it is kept
func (f *Filter) Transition(s State, line string) (State, bool) {
	if s.Mode == Terminated || f.terminator.MatchString(line) {
		return State{Mode: Terminated}, false
	}

	if s.Mode == Skipping {
		if s.Remaining <= 1 {
			return State{Mode: Normal}, false
		}
		return State{Mode: Skipping, Remaining: s.Remaining - 1}, false
	}

	if f.boundary.MatchString(line) {
		if f.skip == 0 {
			return State{Mode: Normal}, true
		}
		return State{Mode: Skipping, Remaining: f.skip}, true
	}
	for _, re := range f.drop {
		if re.MatchString(line) {
			return s, false
		}
	}
	return s, true
}

// Apply runs the filter over a whole section
func (f *Filter) Apply(lines []string) []string {
	var kept []string
	s := State{Mode: Normal}
	for _, line := range lines {
		var keep bool
		s, keep = f.Transition(s, line)
		if keep {
			kept = append(kept, line)
		}
		if s.Mode == Terminated {
			break
		}
	}
	return kept
}
