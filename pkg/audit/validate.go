// pkg/audit/validate.go
package audit

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// Issue describes one record that breaks a dataset invariant
type Issue struct {
	RowIndex      int
	RowIdentifier string
	ColumnName    string
	Message       string
}

// String returns a formatted issue message
func (i Issue) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Row %d", i.RowIndex)
	if i.RowIdentifier != "" {
		fmt.Fprintf(&sb, " (%s)", i.RowIdentifier)
	}
	if i.ColumnName != "" {
		fmt.Fprintf(&sb, " Column: %s", i.ColumnName)
	}
	sb.WriteString(": " + i.Message)
	return sb.String()
}

// ValidateDataset checks every record against the generation invariants and
// every missing cell against the corruption log. It never modifies the dataset.
func ValidateDataset(ds *model.Dataset) []Issue {
	var issues []Issue
	seenIDs := make(map[string]int, ds.Len())

	for i := range ds.Records {
		rec := &ds.Records[i]
		issues = append(issues, validateRecord(i, rec, ds)...)

		if first, dup := seenIDs[rec.TestID]; dup {
			issues = append(issues, Issue{
				RowIndex:      i,
				RowIdentifier: rec.DeviceID,
				ColumnName:    model.ColumnTestID,
				Message:       fmt.Sprintf("duplicate test_id, first seen at row %d", first),
			})
		} else {
			seenIDs[rec.TestID] = i
		}
	}

	return append(issues, validateCorruptionLog(ds)...)
}

// validateRecord checks a single record
func validateRecord(index int, rec *model.TestRecord, ds *model.Dataset) []Issue {
	var issues []Issue
	add := func(column, format string, args ...interface{}) {
		issues = append(issues, Issue{
			RowIndex:      index,
			RowIdentifier: rec.DeviceID,
			ColumnName:    column,
			Message:       fmt.Sprintf(format, args...),
		})
	}

	if !isValidUUID(rec.TestID) {
		add(model.ColumnTestID, "invalid UUID %q", rec.TestID)
	}

	if want := generator.DeviceID(index); rec.DeviceID != want {
		add(model.ColumnDeviceID, "expected %s, got %s", want, rec.DeviceID)
	}

	if !ds.ReferenceTime.IsZero() && rec.Date.After(ds.ReferenceTime) {
		add(model.ColumnDate, "date %s is after the reference time %s", rec.Date, ds.ReferenceTime)
	}

	// Type-conditioned columns may be missing but never present for the wrong test type
	if rec.DoseKrad.Valid() && !rec.IsTID() {
		add(model.ColumnDoseKrad, "dose present for test type %s", rec.TestType)
	}
	if rec.DoseKrad.State == model.CellNull && rec.IsTID() {
		add(model.ColumnDoseKrad, "dose null for TID test")
	}
	if rec.FluenceCm2.Valid() && !rec.IsSEE() {
		add(model.ColumnFluenceCm2, "fluence present for test type %s", rec.TestType)
	}
	if rec.FluenceCm2.State == model.CellNull && rec.IsSEE() {
		add(model.ColumnFluenceCm2, "fluence null for SEE test")
	}

	if n, ok := rec.ErrorCount.Get(); ok && n < 0 {
		add(model.ColumnErrorCount, "negative error count %d", n)
	}

	if p := rec.FailureProbability; p < generator.BaseFailureRate || p > generator.MaxFailureRate {
		add(model.ColumnFailure, "failure probability %.4f outside [%.2f, %.2f]",
			p, generator.BaseFailureRate, generator.MaxFailureRate)
	}

	for _, col := range []string{model.ColumnBeamEnergyMeV, model.ColumnVoltageV, model.ColumnCurrentMA, model.ColumnTempC} {
		cell, err := rec.Value(col)
		if err != nil {
			add(col, "%v", err)
			continue
		}
		if f, ok := cell.(model.Float); ok && f.State == model.CellNull {
			add(col, "always-applicable column is null")
		}
	}

	return issues
}

// validateCorruptionLog checks that the missing cells and the corruption log agree
func validateCorruptionLog(ds *model.Dataset) []Issue {
	var issues []Issue
	logged := make(map[string]map[int]bool)

	for _, op := range ds.Corruptions {
		if op.RowIndex < 0 || op.RowIndex >= ds.Len() {
			issues = append(issues, Issue{
				RowIndex:   op.RowIndex,
				ColumnName: op.ColumnName,
				Message:    "corruption logged for a row outside the dataset",
			})
			continue
		}
		if logged[op.ColumnName] == nil {
			logged[op.ColumnName] = make(map[int]bool)
		}
		logged[op.ColumnName][op.RowIndex] = true

		if !ds.Records[op.RowIndex].IsMissing(op.ColumnName) {
			issues = append(issues, Issue{
				RowIndex:      op.RowIndex,
				RowIdentifier: op.RowIdentifier,
				ColumnName:    op.ColumnName,
				Message:       "corruption logged but cell is not missing",
			})
		}
	}

	for _, col := range model.NumericColumnNames() {
		for i := range ds.Records {
			if ds.Records[i].IsMissing(col) && !logged[col][i] {
				issues = append(issues, Issue{
					RowIndex:      i,
					RowIdentifier: ds.Records[i].DeviceID,
					ColumnName:    col,
					Message:       "missing cell has no corruption log entry",
				})
			}
		}
	}

	return issues
}

// isValidUUID checks if a string is a valid UUID
func isValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}
