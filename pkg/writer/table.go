// pkg/writer/table.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/audit"
	"github.com/David-Botos/radiation-fixtures/pkg/connector"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// DefaultTableChunkSize is the number of rows loaded per BulkInsert call
const DefaultTableChunkSize = 5000

// ErrVerificationFailed is returned when the loaded table does not match the dataset
var ErrVerificationFailed = errors.New("table verification failed")

// TableWriter loads a dataset into a database table and records its corruption audit
type TableWriter struct {
	loader    connector.TableLoader
	logger    *zap.Logger
	chunkSize int
	truncate  bool
	audit     bool
	newRunID  func() string
}

// TableOption configures a TableWriter
type TableOption func(*TableWriter)

// WithChunkSize sets the number of rows per load call
func WithChunkSize(size int) TableOption {
	return func(w *TableWriter) {
		if size > 0 {
			w.chunkSize = size
		}
	}
}

// WithTruncate controls whether existing rows are removed before loading. Defaults to true.
func WithTruncate(truncate bool) TableOption {
	return func(w *TableWriter) {
		w.truncate = truncate
	}
}

// WithAudit controls whether corruption operations are recorded. Defaults to true.
func WithAudit(enabled bool) TableOption {
	return func(w *TableWriter) {
		w.audit = enabled
	}
}

// NewTableWriter creates a new table writer
func NewTableWriter(loader connector.TableLoader, logger *zap.Logger, opts ...TableOption) (*TableWriter, error) {
	if loader == nil {
		return nil, errors.New("table loader cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &TableWriter{
		loader:    loader,
		logger:    logger,
		chunkSize: DefaultTableChunkSize,
		truncate:  true,
		audit:     true,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write creates the target table if needed, loads the dataset in chunks,
// records the corruption log and verifies the result
func (w *TableWriter) Write(ctx context.Context, ds *model.Dataset) (WriteResult, error) {
	start := time.Now()
	md := ds.Metadata
	conv := w.loader.Converter()
	target := conv.QualifiedName(md.Schema, md.Table)

	result := WriteResult{
		Sink:   string(conv.Dialect()),
		Target: target,
		RunID:  w.newRunID(),
	}
	logger := w.logger.With(
		zap.String("runID", result.RunID),
		zap.String("table", md.FullName()))

	logger.Info("Loading dataset into table",
		zap.Int("rows", ds.Len()),
		zap.Int("chunkSize", w.chunkSize))

	baseline, err := w.prepareTable(ctx, md)
	if err != nil {
		return result, NewErrorRecord(err, ErrorCategoryTable).WithTarget(target)
	}

	rows, err := conv.DatasetValues(ds)
	if err != nil {
		return result, NewErrorRecord(err, ErrorCategoryConversion).WithTarget(target)
	}

	columns := md.ColumnNames()
	for i := 0; i < len(rows); i += w.chunkSize {
		end := min(i+w.chunkSize, len(rows))

		if err := ctx.Err(); err != nil {
			return result, NewErrorRecord(err, ErrorCategoryChunk).WithTarget(target).WithRows(i, end)
		}

		n, err := w.loader.BulkInsert(ctx, md.Schema, md.Table, columns, rows[i:end])
		result.RowsWritten += n
		if err != nil {
			logger.Error("Failed to load chunk",
				zap.Int("start", i),
				zap.Int("end", end),
				zap.Error(err))
			return result, NewErrorRecord(err, ErrorCategoryChunk).WithTarget(target).WithRows(i, end)
		}

		logger.Debug("Loaded chunk",
			zap.Int("start", i),
			zap.Int("end", end),
			zap.Int64("rowsWritten", result.RowsWritten))
	}

	if w.audit && len(ds.Corruptions) > 0 {
		recorder, err := audit.NewRecorder(ctx, w.loader, md.Schema, logger)
		if err != nil {
			return result, NewErrorRecord(err, ErrorCategoryAudit).WithTarget(target)
		}
		if err := recorder.RecordCorruptions(ctx, result.RunID, md, ds.Corruptions); err != nil {
			return result, NewErrorRecord(err, ErrorCategoryAudit).WithTarget(target)
		}
		result.CorruptionsRecorded = len(ds.Corruptions)
	}

	report, err := NewVerifier(w.loader, logger).GenerateVerificationReport(ctx, ds, baseline)
	if err != nil {
		return result, NewErrorRecord(err, ErrorCategoryVerification).WithTarget(target)
	}
	result.Verification = report
	if !report.Passed() {
		return result, NewErrorRecord(
			fmt.Errorf("%w: expected %d rows, found %d, %d null count mismatches",
				ErrVerificationFailed, report.ExpectedRowCount, report.TargetRowCount, len(report.NullCountMismatches)),
			ErrorCategoryVerification).WithTarget(target)
	}

	result.Duration = time.Since(start)
	logger.Info(fmt.Sprintf("Synthetic data saved to %s", target),
		zap.Int64("rows", result.RowsWritten),
		zap.Int("corruptionsRecorded", result.CorruptionsRecorded),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// prepareTable ensures the schema and table exist and returns the row count loading starts from
func (w *TableWriter) prepareTable(ctx context.Context, md *model.TableMetadata) (int64, error) {
	conv := w.loader.Converter()

	if err := w.loader.EnsureSchema(ctx, md.Schema); err != nil {
		return 0, err
	}

	defs, err := conv.GenerateColumnDefinitions(md)
	if err != nil {
		return 0, fmt.Errorf("failed to generate column definitions: %w", err)
	}
	if err := w.loader.CreateTableIfNotExists(ctx, md.Schema, md.Table, defs, conv.PrimaryKeyClause(md)); err != nil {
		return 0, err
	}

	if w.truncate {
		return 0, w.loader.TruncateTable(ctx, md.Schema, md.Table)
	}
	return w.loader.CountRows(ctx, md.Schema, md.Table, "")
}
