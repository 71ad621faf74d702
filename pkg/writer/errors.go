// pkg/writer/errors.go
package writer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCategory defines categories of errors while writing a dataset
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryFile
	ErrorCategoryConversion
	ErrorCategoryConnection
	ErrorCategoryTable
	ErrorCategoryChunk
	ErrorCategoryAudit
	ErrorCategoryVerification
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryFile:
		return "File"
	case ErrorCategoryConversion:
		return "Conversion"
	case ErrorCategoryConnection:
		return "Connection"
	case ErrorCategoryTable:
		return "Table"
	case ErrorCategoryChunk:
		return "Chunk"
	case ErrorCategoryAudit:
		return "Audit"
	case ErrorCategoryVerification:
		return "Verification"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord is a categorized write failure
type ErrorRecord struct {
	Category  ErrorCategory
	Target    string
	RowStart  int
	RowEnd    int
	Err       error
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) *ErrorRecord {
	return &ErrorRecord{
		Category:  category,
		Err:       err,
		RowStart:  -1,
		RowEnd:    -1,
		Timestamp: time.Now(),
	}
}

// WithTarget adds the file path or table name to the error record
func (r *ErrorRecord) WithTarget(target string) *ErrorRecord {
	r.Target = target
	return r
}

// WithRows adds the half-open row range [start, end) being written
func (r *ErrorRecord) WithRows(start, end int) *ErrorRecord {
	r.RowStart = start
	r.RowEnd = end
	return r
}

// Error returns a formatted error message
func (r *ErrorRecord) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Target != "" {
		sb.WriteString(fmt.Sprintf("Target: %s ", r.Target))
	}

	if r.RowStart >= 0 {
		sb.WriteString(fmt.Sprintf("Rows: %d-%d ", r.RowStart, r.RowEnd))
	}

	if r.Err != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Err.Error()))
	}

	return strings.TrimSpace(sb.String())
}

// Unwrap returns the underlying error
func (r *ErrorRecord) Unwrap() error {
	return r.Err
}

// CategoryOf returns the category of the first ErrorRecord in err's chain
func CategoryOf(err error) ErrorCategory {
	var record *ErrorRecord
	if errors.As(err, &record) {
		return record.Category
	}
	return ErrorCategoryNone
}
