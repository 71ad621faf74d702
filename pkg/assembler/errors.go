package assembler

import "errors"

var (
	// ErrInvalidRowCount is returned for negative row counts. Zero is allowed and yields an empty dataset.
	ErrInvalidRowCount = errors.New("row count cannot be negative")
	// ErrUnknownColumn is returned when a missing-value plan names a column that is not numeric
	ErrUnknownColumn = errors.New("column is not a numeric dataset column")
	// ErrInvalidFraction is returned when a missing-value fraction falls outside [0, 1]
	ErrInvalidFraction = errors.New("missing-value fraction must be within [0, 1]")
)
