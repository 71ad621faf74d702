// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/converter"
)

// Default timeouts for connector statements
const (
	DefaultStatementTimeout = 30 * time.Second
	DefaultBatchSize        = 1000
)

// DatabaseConnector defines the interface for database connectors
type DatabaseConnector interface {
	// DB returns the underlying database connection
	DB() *sql.DB

	// Validate verifies the connection and permissions
	Validate() error

	// Close closes the connection and releases resources
	Close() error

	// QueryWithTimeout executes a query with a timeout. The returned rows must be closed
	// before the timeout elapses.
	QueryWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (*sql.Rows, error)

	// ExecWithTimeout executes a statement with a timeout
	ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error)
}

// TableLoader is a DatabaseConnector that can create tables and bulk load rows into them
type TableLoader interface {
	DatabaseConnector

	// Converter returns the converter configured for the connector's SQL dialect
	Converter() *converter.TypeConverter

	// EnsureSchema creates a schema if it doesn't exist
	EnsureSchema(ctx context.Context, schema string) error

	// CreateTableIfNotExists creates a table from column definitions if it doesn't exist
	CreateTableIfNotExists(ctx context.Context, schema, table string, columnDefs []string, primaryKey string) error

	// TruncateTable removes every row of a table
	TruncateTable(ctx context.Context, schema, table string) error

	// BulkInsert loads rows and returns the number of rows written
	BulkInsert(ctx context.Context, schema, table string, columns []string, rows [][]interface{}) (int64, error)

	// CountRows returns the number of rows in a table, optionally filtered by a WHERE condition
	CountRows(ctx context.Context, schema, table, where string) (int64, error)
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
	WaitCount       int64
	WaitDuration    time.Duration
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// countRows runs a COUNT(*) against a table through db
func countRows(ctx context.Context, db *sql.DB, conv *converter.TypeConverter, schema, table, where string) (int64, error) {
	query := "SELECT COUNT(*) FROM " + conv.QualifiedName(schema, table)
	if where != "" {
		query += " WHERE " + where
	}

	queryCtx, cancel := context.WithTimeout(ctx, DefaultStatementTimeout)
	defer cancel()

	var count int64
	if err := db.QueryRowContext(queryCtx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", conv.QualifiedName(schema, table), err)
	}
	return count, nil
}

// batchInsert performs multi-row INSERTs of batchSize rows each
func batchInsert(
	ctx context.Context,
	exec func(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error),
	logger *zap.Logger,
	conv *converter.TypeConverter,
	schema, table string,
	columns []string,
	valueRows [][]interface{},
	batchSize int,
) (int64, error) {
	if len(valueRows) == 0 {
		return 0, nil
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var totalRowsInserted int64

	// Process in batches
	for i := 0; i < len(valueRows); i += batchSize {
		end := i + batchSize
		if end > len(valueRows) {
			end = len(valueRows)
		}

		currentBatch := valueRows[i:end]
		args := make([]interface{}, 0, len(currentBatch)*len(columns))
		for _, row := range currentBatch {
			if len(row) != len(columns) {
				return totalRowsInserted, fmt.Errorf("row has %d values, expected %d", len(row), len(columns))
			}
			args = append(args, row...)
		}

		query := conv.InsertStatement(schema, table, columns, len(currentBatch))

		result, err := exec(ctx, query, DefaultStatementTimeout, args...)
		if err != nil {
			return totalRowsInserted, fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			logger.Warn("Couldn't get rows affected", zap.Error(err))
			rowsAffected = int64(len(currentBatch))
		}
		totalRowsInserted += rowsAffected
	}

	return totalRowsInserted, nil
}
