// pkg/writer/verifier.go
package writer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/connector"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// NullCountDiscrepancy is a column whose NULL count in the table differs from the dataset
type NullCountDiscrepancy struct {
	ColumnName string
	Expected   int64
	Actual     int64
}

// VerificationReport contains the results of a table verification
type VerificationReport struct {
	Schema              string
	Table               string
	VerificationTime    time.Time
	RowCountMatches     bool
	ExpectedRowCount    int64
	TargetRowCount      int64
	NullCountsVerified  bool
	NullCountMismatches []NullCountDiscrepancy
	Duration            time.Duration
}

// Passed reports whether every check that ran succeeded
func (r *VerificationReport) Passed() bool {
	return r.RowCountMatches && len(r.NullCountMismatches) == 0
}

// Verifier checks a loaded table against the dataset written into it
type Verifier struct {
	loader  connector.TableLoader
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(loader connector.TableLoader, logger *zap.Logger) *Verifier {
	return &Verifier{
		loader:  loader,
		logger:  logger,
		timeout: time.Minute * 5,
	}
}

// WithTimeout sets a custom timeout for verification operations
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyRowCount compares the table's row count to expected
func (v *Verifier) VerifyRowCount(ctx context.Context, schema, table string, expected int64) (bool, int64, error) {
	v.logger.Info("Verifying row count",
		zap.String("schema", schema),
		zap.String("table", table))

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	targetCount, err := v.loader.CountRows(ctx, schema, table, "")
	if err != nil {
		return false, 0, fmt.Errorf("failed to query target: %w", err)
	}

	matches := targetCount == expected
	if matches {
		v.logger.Info("Row count verification successful",
			zap.String("schema", schema),
			zap.String("table", table),
			zap.Int64("count", targetCount))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("schema", schema),
			zap.String("table", table),
			zap.Int64("expectedCount", expected),
			zap.Int64("targetCount", targetCount),
			zap.Int64("difference", expected-targetCount))
	}

	return matches, targetCount, nil
}

// VerifyNullCounts compares per-column NULL counts of the numeric columns with the dataset.
// It only holds when the table contains nothing but this dataset.
func (v *Verifier) VerifyNullCounts(ctx context.Context, ds *model.Dataset) ([]NullCountDiscrepancy, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	conv := v.loader.Converter()
	schema, table := ds.Metadata.Schema, ds.Metadata.Table
	discrepancies := make([]NullCountDiscrepancy, 0)

	for _, col := range ds.Metadata.Columns {
		if !col.IsNumeric() {
			continue
		}

		expected, err := expectedNullCount(ds, col.Name)
		if err != nil {
			return nil, err
		}

		actual, err := v.loader.CountRows(ctx, schema, table, conv.QuoteIdentifier(col.Name)+" IS NULL")
		if err != nil {
			return nil, fmt.Errorf("failed to count nulls for column %s: %w", col.Name, err)
		}

		if actual != expected {
			discrepancies = append(discrepancies, NullCountDiscrepancy{
				ColumnName: col.Name,
				Expected:   expected,
				Actual:     actual,
			})
			v.logger.Warn("NULL count mismatch",
				zap.String("table", ds.Metadata.FullName()),
				zap.String("column", col.Name),
				zap.Int64("expected", expected),
				zap.Int64("actual", actual))
		}
	}

	return discrepancies, nil
}

// GenerateVerificationReport verifies the table after ds was loaded into it.
// baseline is the row count before loading; null counts are only checked when it is zero.
func (v *Verifier) GenerateVerificationReport(ctx context.Context, ds *model.Dataset, baseline int64) (*VerificationReport, error) {
	start := time.Now()
	report := &VerificationReport{
		Schema:           ds.Metadata.Schema,
		Table:            ds.Metadata.Table,
		VerificationTime: start,
		ExpectedRowCount: baseline + int64(ds.Len()),
	}

	matches, count, err := v.VerifyRowCount(ctx, report.Schema, report.Table, report.ExpectedRowCount)
	if err != nil {
		return nil, err
	}
	report.RowCountMatches = matches
	report.TargetRowCount = count

	if baseline == 0 {
		mismatches, err := v.VerifyNullCounts(ctx, ds)
		if err != nil {
			return nil, err
		}
		report.NullCountsVerified = true
		report.NullCountMismatches = mismatches
	}

	report.Duration = time.Since(start)
	return report, nil
}

// expectedNullCount counts the null and missing cells of a column
func expectedNullCount(ds *model.Dataset, column string) (int64, error) {
	cells, err := ds.Column(column)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, cell := range cells {
		if cell == nil {
			n++
		}
	}
	return n, nil
}
