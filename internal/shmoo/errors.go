package shmoo

import "errors"

var (
	// ErrMalformedHeader means an axis line is missing or unparsable.
	ErrMalformedHeader = errors.New("malformed axis header")
	// ErrMissingGridMarker means no grid-start label line was found.
	ErrMissingGridMarker = errors.New("grid start marker not found")
	// ErrUnparsableRow means a data line does not match the row grammar.
	ErrUnparsableRow = errors.New("unparsable grid row")
	// ErrInconsistentKeySet means two grids disagree on their voltage rows.
	ErrInconsistentKeySet = errors.New("inconsistent voltage key set")
	// ErrRowLengthMismatch means two rows of one voltage differ in width.
	ErrRowLengthMismatch = errors.New("row length mismatch")
	// ErrMarginLookup means the nominal row or marker column is absent.
	ErrMarginLookup = errors.New("margin lookup failure")
)

// Kind returns a short label for the error taxonomy, used in diagnostics
// and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrMissingGridMarker):
		return "missing_grid_marker"
	case errors.Is(err, ErrUnparsableRow):
		return "unparsable_row"
	case errors.Is(err, ErrInconsistentKeySet):
		return "inconsistent_key_set"
	case errors.Is(err, ErrRowLengthMismatch):
		return "row_length_mismatch"
	case errors.Is(err, ErrMarginLookup):
		return "margin_lookup"
	}
	return "io"
}
