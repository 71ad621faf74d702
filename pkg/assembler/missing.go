package assembler

import (
	"fmt"
	"math"
	"slices"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// DefaultMissingFraction is the share of cells blanked in each designated column
const DefaultMissingFraction = 0.01

// DefaultMissingColumns are the columns blanked when no plan is configured
var DefaultMissingColumns = []string{
	model.ColumnVoltageV,
	model.ColumnCurrentMA,
	model.ColumnTempC,
	model.ColumnDoseKrad,
	model.ColumnFluenceCm2,
}

// MissingPlan maps a numeric column name to the fraction of its cells to blank
type MissingPlan map[string]float64

// DefaultMissingPlan blanks DefaultMissingFraction of every default column
func DefaultMissingPlan() MissingPlan {
	return UniformMissingPlan(DefaultMissingColumns, DefaultMissingFraction)
}

// UniformMissingPlan applies the same fraction to every listed column
func UniformMissingPlan(columns []string, fraction float64) MissingPlan {
	plan := make(MissingPlan, len(columns))
	for _, col := range columns {
		plan[col] = fraction
	}
	return plan
}

// Validate checks every column is numeric and every fraction is within [0, 1]
func (p MissingPlan) Validate() error {
	for col, frac := range p {
		if !model.IsNumericColumn(col) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		if math.IsNaN(frac) || frac < 0 || frac > 1 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidFraction, col, frac)
		}
	}
	return nil
}

// Columns returns the planned columns in schema order
func (p MissingPlan) Columns() []string {
	var cols []string
	for _, name := range model.ColumnNames() {
		if _, ok := p[name]; ok {
			cols = append(cols, name)
		}
	}
	return cols
}

// missingStreamName names the random stream used for a column's selection
func missingStreamName(column string) string {
	return "missing:" + column
}

// MissingCellCount returns how many of n cells a fraction selects.
// Rounds half to even, matching the usual frac-based samplers.
func MissingCellCount(fraction float64, n int) int {
	k := int(math.RoundToEven(fraction * float64(n)))
	if k > n {
		return n
	}
	if k < 0 {
		return 0
	}
	return k
}

// InjectMissing overwrites a planned fraction of cells in each planned column with
// the missing marker. Each column draws its rows from its own stream, uniformly and
// without replacement, ignoring current cell values and other columns' selections.
func InjectMissing(ds *model.Dataset, plan MissingPlan, source generator.Source) ([]model.CorruptionOperation, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid missing-value plan: %w", err)
	}

	n := ds.Len()
	var ops []model.CorruptionOperation

	for _, col := range plan.Columns() {
		k := MissingCellCount(plan[col], n)
		if k == 0 {
			continue
		}

		rows := sampleWithoutReplacement(source.Named(missingStreamName(col)), n, k)
		for _, row := range rows {
			rec := &ds.Records[row]
			original, err := rec.MarkMissing(col)
			if err != nil {
				return ops, fmt.Errorf("failed to mark %s missing at row %d: %w", col, row, err)
			}

			ops = append(ops, model.CorruptionOperation{
				ColumnName:    col,
				RowIndex:      row,
				RowIdentifier: rec.DeviceID,
				OriginalValue: original,
				Operation:     model.OperationMissingInjection,
				Reason:        model.ReasonConfiguredFraction,
			})
		}
	}

	return ops, nil
}

// sampleWithoutReplacement picks k distinct positions from [0, n) with a partial
// Fisher-Yates shuffle and returns them in ascending order
func sampleWithoutReplacement(rng generator.Rand, n, k int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}

	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		positions[i], positions[j] = positions[j], positions[i]
	}

	picked := positions[:k]
	slices.Sort(picked)
	return picked
}
