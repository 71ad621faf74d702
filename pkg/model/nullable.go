// pkg/model/nullable.go
package model

import "fmt"

// CellState describes whether a numeric cell carries a value
type CellState uint8

const (
	// CellPresent means the cell holds a sampled value
	CellPresent CellState = iota
	// CellNull means the field does not apply to this record (e.g. dose on an SEE test)
	CellNull
	// CellMissing means the value was overwritten by the missing-value pass
	CellMissing
)

// String returns a string representation of the cell state
func (s CellState) String() string {
	switch s {
	case CellPresent:
		return "present"
	case CellNull:
		return "null"
	case CellMissing:
		return "missing"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Number is the set of value types a numeric column can hold
type Number interface {
	~int | ~float64
}

// Nullable is a tagged numeric value. The zero value is a present zero.
type Nullable[T Number] struct {
	Value T
	State CellState
}

// Float is a nullable float64 cell
type Float = Nullable[float64]

// Int is a nullable int cell
type Int = Nullable[int]

// Some wraps a sampled value
func Some[T Number](v T) Nullable[T] {
	return Nullable[T]{Value: v, State: CellPresent}
}

// Null returns a cell that does not apply to its record
func Null[T Number]() Nullable[T] {
	return Nullable[T]{State: CellNull}
}

// Valid reports whether the cell holds a value
func (n Nullable[T]) Valid() bool {
	return n.State == CellPresent
}

// IsMissing reports whether the cell was overwritten by the missing-value pass
func (n Nullable[T]) IsMissing() bool {
	return n.State == CellMissing
}

// Get returns the value and whether it is present
func (n Nullable[T]) Get() (T, bool) {
	return n.Value, n.State == CellPresent
}

// Interface returns the value, or nil when the cell is null or missing
func (n Nullable[T]) Interface() interface{} {
	if n.State != CellPresent {
		return nil
	}
	return n.Value
}

// markMissing overwrites the cell and returns what it held before
func (n *Nullable[T]) markMissing() interface{} {
	original := n.Interface()
	var zero T
	n.Value = zero
	n.State = CellMissing
	return original
}
