// pkg/model/record.go
package model

import (
	"errors"
	"fmt"
	"time"
)

// Column names in output order
const (
	ColumnTestID        = "test_id"
	ColumnDate          = "date"
	ColumnDeviceID      = "device_id"
	ColumnPartNumber    = "part_number"
	ColumnManufacturer  = "manufacturer"
	ColumnTestType      = "test_type"
	ColumnBeamEnergyMeV = "beam_energy_MeV"
	ColumnDoseKrad      = "dose_krad"
	ColumnFluenceCm2    = "fluence_cm2"
	ColumnVoltageV      = "voltage_V"
	ColumnCurrentMA     = "current_mA"
	ColumnErrorCount    = "error_count"
	ColumnFailure       = "failure"
	ColumnNotes         = "notes"
	ColumnTestFixture   = "test_fixture"
	ColumnTempC         = "temp_C"
	ColumnOperator      = "operator"
)

// Test type identifiers with special handling
const (
	TestTypeTID       = "TID"
	TestTypeSEEPrefix = "SEE"
	TestTypeDDD       = "DDD"
)

// ErrUnknownColumn is returned when a column name is not part of the record schema
var ErrUnknownColumn = errors.New("unknown column")

// ErrNotNumeric is returned when a non-numeric column is used where a numeric one is required
var ErrNotNumeric = errors.New("column is not numeric")

// TestRecord is one synthetic radiation test event
type TestRecord struct {
	TestID        string
	Date          time.Time
	DeviceID      string
	PartNumber    string
	Manufacturer  string
	TestType      string
	BeamEnergyMeV Float
	DoseKrad      Float
	FluenceCm2    Float
	VoltageV      Float
	CurrentMA     Float
	ErrorCount    Int
	Failure       bool
	Notes         string
	TestFixture   string
	TempC         Float
	Operator      string

	// FailureProbability is the probability used for the failure draw. Not an output column.
	FailureProbability float64
}

// Value returns the cell for a column. Numeric cells are returned as Float or Int.
func (r *TestRecord) Value(column string) (interface{}, error) {
	switch column {
	case ColumnTestID:
		return r.TestID, nil
	case ColumnDate:
		return r.Date, nil
	case ColumnDeviceID:
		return r.DeviceID, nil
	case ColumnPartNumber:
		return r.PartNumber, nil
	case ColumnManufacturer:
		return r.Manufacturer, nil
	case ColumnTestType:
		return r.TestType, nil
	case ColumnFailure:
		return r.Failure, nil
	case ColumnNotes:
		return r.Notes, nil
	case ColumnTestFixture:
		return r.TestFixture, nil
	case ColumnOperator:
		return r.Operator, nil
	case ColumnErrorCount:
		return r.ErrorCount, nil
	}

	if f := r.floatCell(column); f != nil {
		return *f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
}

// MarkMissing overwrites a numeric cell with the missing marker and returns its previous value
func (r *TestRecord) MarkMissing(column string) (interface{}, error) {
	if column == ColumnErrorCount {
		return r.ErrorCount.markMissing(), nil
	}
	if f := r.floatCell(column); f != nil {
		return f.markMissing(), nil
	}
	if IsColumn(column) {
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, column)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
}

// IsMissing reports whether a column's cell carries the missing marker
func (r *TestRecord) IsMissing(column string) bool {
	if column == ColumnErrorCount {
		return r.ErrorCount.IsMissing()
	}
	if f := r.floatCell(column); f != nil {
		return f.IsMissing()
	}
	return false
}

// IsTID reports whether the record is a total ionizing dose test
func (r *TestRecord) IsTID() bool {
	return IsTIDTestType(r.TestType)
}

// IsSEE reports whether the record is a single event effect test
func (r *TestRecord) IsSEE() bool {
	return IsSEETestType(r.TestType)
}

func (r *TestRecord) floatCell(column string) *Float {
	switch column {
	case ColumnBeamEnergyMeV:
		return &r.BeamEnergyMeV
	case ColumnDoseKrad:
		return &r.DoseKrad
	case ColumnFluenceCm2:
		return &r.FluenceCm2
	case ColumnVoltageV:
		return &r.VoltageV
	case ColumnCurrentMA:
		return &r.CurrentMA
	case ColumnTempC:
		return &r.TempC
	}
	return nil
}

// IsTIDTestType reports whether a test type carries a dose measurement
func IsTIDTestType(testType string) bool {
	return testType == TestTypeTID
}

// IsSEETestType reports whether a test type carries a fluence measurement
func IsSEETestType(testType string) bool {
	return hasPrefix(testType, TestTypeSEEPrefix)
}
