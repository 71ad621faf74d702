// Package audit records and checks the corruption applied to generated datasets.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/connector"
	"github.com/David-Botos/radiation-fixtures/pkg/converter"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// TableName is the tracking table for injected corruption
const TableName = "corrupted_on_generation"

// Tracking table columns
const (
	ColumnRunID         = "run_id"
	ColumnSchemaName    = "schema_name"
	ColumnTableName     = "table_name"
	ColumnColumnName    = "column_name"
	ColumnRowIndex      = "row_index"
	ColumnRowIdentifier = "row_identifier"
	ColumnOriginalValue = "original_value"
	ColumnOperation     = "operation"
	ColumnReason        = "reason"
	ColumnRecordedAt    = "recorded_at"
)

// Metadata describes the tracking table under the given schema
func Metadata(schema string) *model.TableMetadata {
	return &model.TableMetadata{
		Schema: schema,
		Table:  TableName,
		Columns: []model.Column{
			{Name: ColumnRunID, DataType: model.TypeUUID, IsPrimaryKey: true},
			{Name: ColumnSchemaName, DataType: model.TypeVarchar, Nullable: true},
			{Name: ColumnTableName, DataType: model.TypeVarchar},
			{Name: ColumnColumnName, DataType: model.TypeVarchar, IsPrimaryKey: true},
			{Name: ColumnRowIndex, DataType: model.TypeInteger, IsPrimaryKey: true},
			{Name: ColumnRowIdentifier, DataType: model.TypeVarchar},
			{Name: ColumnOriginalValue, DataType: model.TypeVarchar, Nullable: true},
			{Name: ColumnOperation, DataType: model.TypeVarchar},
			{Name: ColumnReason, DataType: model.TypeVarchar},
			{Name: ColumnRecordedAt, DataType: model.TypeTimestamp},
		},
		PrimaryKeys: []string{ColumnRunID, ColumnColumnName, ColumnRowIndex},
	}
}

// Recorder writes corruption operations into the tracking table
type Recorder struct {
	db       *sql.DB
	conv     *converter.TypeConverter
	metadata *model.TableMetadata
	logger   *zap.Logger
	now      func() time.Time
}

// NewRecorder creates a Recorder and ensures the tracking table exists
func NewRecorder(ctx context.Context, loader connector.TableLoader, schema string, logger *zap.Logger) (*Recorder, error) {
	if loader == nil {
		return nil, errors.New("table loader cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	recorder := &Recorder{
		db:       loader.DB(),
		conv:     loader.Converter(),
		metadata: Metadata(schema),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}

	if err := recorder.setupTrackingTable(ctx, loader); err != nil {
		return nil, fmt.Errorf("failed to setup tracking table: %w", err)
	}

	return recorder, nil
}

// setupTrackingTable ensures the corrupted_on_generation tracking table exists
func (r *Recorder) setupTrackingTable(ctx context.Context, loader connector.TableLoader) error {
	defs, err := r.conv.GenerateColumnDefinitions(r.metadata)
	if err != nil {
		return err
	}

	err = loader.CreateTableIfNotExists(ctx, r.metadata.Schema, r.metadata.Table, defs, r.conv.PrimaryKeyClause(r.metadata))
	if err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured tracking table exists", zap.String("table", r.metadata.FullName()))
	return nil
}

// RecordCorruptions inserts the corruption operations of one run into the tracking table
func (r *Recorder) RecordCorruptions(
	ctx context.Context,
	runID string,
	target *model.TableMetadata,
	operations []model.CorruptionOperation,
) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx,
		r.conv.InsertStatement(r.metadata.Schema, r.metadata.Table, r.metadata.ColumnNames(), 1))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	recordedAt := r.now()
	for _, op := range operations {
		original, convErr := r.toNullableText(op.OriginalValue)
		if convErr != nil {
			return fmt.Errorf("failed to convert original value of %s row %d: %w", op.ColumnName, op.RowIndex, convErr)
		}

		_, err = stmt.ExecContext(ctx,
			runID,
			nullableString(target.Schema),
			target.Table,
			op.ColumnName,
			int64(op.RowIndex),
			op.RowIdentifier,
			original,
			op.Operation,
			op.Reason,
			recordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert corruption operation: %w", err)
		}
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded corruption operations",
		zap.String("runID", runID),
		zap.Int("count", len(operations)))
	return nil
}

// toNullableText renders an original value as text, keeping nil as NULL
func (r *Recorder) toNullableText(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return r.conv.FormatText(v)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
