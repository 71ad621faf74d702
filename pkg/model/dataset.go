// pkg/model/dataset.go
package model

import (
	"fmt"
	"time"
)

// Dataset is an ordered collection of test records, one per index in [0, N)
type Dataset struct {
	Metadata      *TableMetadata
	Records       []TestRecord
	Corruptions   []CorruptionOperation
	Seed          uint64
	ReferenceTime time.Time
}

// NewDataset creates an empty dataset with room for n records
func NewDataset(metadata *TableMetadata, n int, seed uint64, referenceTime time.Time) *Dataset {
	if metadata == nil {
		metadata = NewTableMetadata("", "")
	}
	return &Dataset{
		Metadata:      metadata,
		Records:       make([]TestRecord, n),
		Seed:          seed,
		ReferenceTime: referenceTime,
	}
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Column returns every cell of a column in row order.
// Numeric cells are unwrapped: null and missing cells become nil.
func (d *Dataset) Column(name string) ([]interface{}, error) {
	if !IsColumn(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}

	values := make([]interface{}, len(d.Records))
	for i := range d.Records {
		v, err := d.Records[i].Value(name)
		if err != nil {
			return nil, err
		}
		values[i] = unwrap(v)
	}
	return values, nil
}

// Row returns the cells of one record in column order, unwrapped like Column
func (d *Dataset) Row(index int) ([]interface{}, error) {
	if index < 0 || index >= len(d.Records) {
		return nil, fmt.Errorf("row index %d out of range [0, %d)", index, len(d.Records))
	}

	names := d.Metadata.ColumnNames()
	row := make([]interface{}, len(names))
	for i, name := range names {
		v, err := d.Records[index].Value(name)
		if err != nil {
			return nil, err
		}
		row[i] = unwrap(v)
	}
	return row, nil
}

// MissingCount returns the number of cells in a column carrying the missing marker
func (d *Dataset) MissingCount(column string) int {
	count := 0
	for i := range d.Records {
		if d.Records[i].IsMissing(column) {
			count++
		}
	}
	return count
}

// RecordCorruptions appends corruption operations to the audit log
func (d *Dataset) RecordCorruptions(ops []CorruptionOperation) {
	d.Corruptions = append(d.Corruptions, ops...)
}

func unwrap(v interface{}) interface{} {
	switch cell := v.(type) {
	case Float:
		return cell.Interface()
	case Int:
		return cell.Interface()
	default:
		return v
	}
}
