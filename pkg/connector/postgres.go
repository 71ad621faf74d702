// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/config"
	"github.com/David-Botos/radiation-fixtures/pkg/converter"
)

// PostgresConnector implements the TableLoader interface for PostgreSQL.
// The lib/pq driver loads through COPY; the pgx driver through multi-row INSERTs.
type PostgresConnector struct {
	db        *sqlx.DB
	logger    *zap.Logger
	cfg       *config.PostgresConfig
	conv      *converter.TypeConverter
	batchSize int
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User),
		zap.String("driver", driverName(cfg)))

	// Open database connection
	db, err := sqlx.Open(driverName(cfg), cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := newPostgresConnector(db, cfg, logger)
	LogConnectionStats(logger, cfg.Database, db.DB)
	return connector, nil
}

// NewPostgresConnectorFromDB wraps an already open connection
func NewPostgresConnectorFromDB(db *sql.DB, cfg *config.PostgresConfig) *PostgresConnector {
	return newPostgresConnector(sqlx.NewDb(db, driverName(cfg)), cfg, zap.L().Named("postgres-connector"))
}

func newPostgresConnector(db *sqlx.DB, cfg *config.PostgresConfig, logger *zap.Logger) *PostgresConnector {
	return &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		conv: converter.NewTypeConverterWithConfig(logger,
			converter.TypeConverterConfig{Dialect: converter.DialectPostgres}),
		batchSize: DefaultBatchSize,
	}
}

func driverName(cfg *config.PostgresConfig) string {
	if cfg == nil || cfg.Driver == "" {
		return config.DriverPQ
	}
	return cfg.Driver
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sql.DB {
	return c.db.DB
}

// Converter returns the PostgreSQL type converter
func (c *PostgresConnector) Converter() *converter.TypeConverter {
	return c.conv
}

// Validate verifies the PostgreSQL connection and required permissions
func (c *PostgresConnector) Validate() error {
	// Check database version
	var version string
	if err := c.db.Get(&version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	// Check permissions by creating a temp table
	_, err := c.db.Exec(`
		DO $$
		BEGIN
			CREATE TEMP TABLE _permission_check (id serial, test text);
			INSERT INTO _permission_check (test) VALUES ('test');
			DROP TABLE _permission_check;
		EXCEPTION WHEN OTHERS THEN
			RAISE EXCEPTION 'Permission check failed: %', SQLERRM;
		END $$;
	`)
	if err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port))

	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}

// EnsureSchema creates a schema if it doesn't exist
func (c *PostgresConnector) EnsureSchema(ctx context.Context, schema string) error {
	if schema == "" {
		return nil
	}
	_, err := c.ExecWithTimeout(ctx, "CREATE SCHEMA IF NOT EXISTS "+c.conv.QuoteIdentifier(schema), DefaultStatementTimeout)
	if err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", schema, err)
	}
	return nil
}

// ExecWithTimeout executes a query with a timeout
func (c *PostgresConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// QueryWithTimeout executes a query with a timeout
func (c *PostgresConnector) QueryWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	rows, err := c.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	// the context is released once the timeout elapses
	time.AfterFunc(timeout, cancel)
	return rows, nil
}

// BulkInsert loads rows through COPY on lib/pq, or batched multi-row INSERTs on pgx
func (c *PostgresConnector) BulkInsert(
	ctx context.Context,
	schema string,
	table string,
	columns []string,
	valueRows [][]interface{},
) (int64, error) {
	if driverName(c.cfg) == config.DriverPQ {
		return c.CopyIn(ctx, schema, table, columns, valueRows)
	}
	return c.BatchInsert(ctx, schema, table, columns, valueRows, c.batchSize)
}

// CopyIn streams rows into a table with COPY FROM STDIN inside one transaction
func (c *PostgresConnector) CopyIn(
	ctx context.Context,
	schema string,
	table string,
	columns []string,
	valueRows [][]interface{},
) (rowsCopied int64, err error) {
	if len(valueRows) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(schema, table, columns...))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare COPY: %w", err)
	}

	for i, row := range valueRows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("COPY failed at row %d: %w", i, err)
		}
	}

	// flush the buffered rows
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("failed to flush COPY: %w", err)
	}

	if err = stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close COPY: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return int64(len(valueRows)), nil
}

// BatchInsert performs a bulk insert into a table
func (c *PostgresConnector) BatchInsert(
	ctx context.Context,
	schema string,
	table string,
	columns []string,
	valueRows [][]interface{},
	batchSize int,
) (int64, error) {
	// PostgreSQL caps a statement at 65535 bind parameters
	if maxRows := 65535 / max(len(columns), 1); batchSize > maxRows {
		batchSize = maxRows
	}
	return batchInsert(ctx, c.ExecWithTimeout, c.logger, c.conv, schema, table, columns, valueRows, batchSize)
}

// CountRows returns the number of rows in a table
func (c *PostgresConnector) CountRows(ctx context.Context, schema, table, where string) (int64, error) {
	return countRows(ctx, c.db.DB, c.conv, schema, table, where)
}

// TruncateTable removes every row of a table
func (c *PostgresConnector) TruncateTable(ctx context.Context, schema, table string) error {
	fullTableName := c.conv.QualifiedName(schema, table)
	if _, err := c.ExecWithTimeout(ctx, "TRUNCATE TABLE "+fullTableName, DefaultStatementTimeout); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", fullTableName, err)
	}
	return nil
}

// CreateTableIfNotExists creates a table with the specified schema if it doesn't exist
func (c *PostgresConnector) CreateTableIfNotExists(
	ctx context.Context,
	schema string,
	table string,
	columnDefs []string,
	primaryKey string,
) error {
	// Format fully qualified table name
	fullTableName := c.conv.QualifiedName(schema, table)

	// Check if table exists
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`

	if err := c.db.GetContext(ctx, &exists, query, schema, table); err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}

	if exists {
		c.logger.Debug("Table already exists", zap.String("table", fullTableName))
		return nil
	}

	// Build CREATE TABLE statement
	createSQL := fmt.Sprintf(
		"CREATE TABLE %s (\n\t%s",
		fullTableName,
		strings.Join(columnDefs, ",\n\t"),
	)

	// Add primary key if specified
	if primaryKey != "" {
		createSQL += fmt.Sprintf(",\n\tPRIMARY KEY (%s)", primaryKey)
	}
	createSQL += "\n)"

	// Execute CREATE TABLE
	if _, err := c.ExecWithTimeout(ctx, createSQL, DefaultStatementTimeout); err != nil {
		return fmt.Errorf("failed to create table %s: %w", fullTableName, err)
	}

	c.logger.Info("Created table", zap.String("table", fullTableName))
	return nil
}
