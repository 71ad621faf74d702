// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/config"
	"github.com/David-Botos/radiation-fixtures/pkg/converter"
)

// SnowflakeConnector implements the TableLoader interface for Snowflake
type SnowflakeConnector struct {
	db        *sql.DB
	logger    *zap.Logger
	cfg       *config.SnowflakeConfig
	conv      *converter.TypeConverter
	batchSize int
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-connector")

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("role", cfg.Role))

	dsn, err := BuildSnowflakeDSN(cfg)
	if err != nil {
		return nil, err
	}

	// Open connection pool
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set query timeout if configured
	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(cfg.QueryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	connector := NewSnowflakeConnectorFromDB(db, cfg)
	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// NewSnowflakeConnectorFromDB wraps an already open connection
func NewSnowflakeConnectorFromDB(db *sql.DB, cfg *config.SnowflakeConfig) *SnowflakeConnector {
	logger := zap.L().Named("snowflake-connector")
	return &SnowflakeConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		conv: converter.NewTypeConverterWithConfig(logger,
			converter.TypeConverterConfig{Dialect: converter.DialectSnowflake}),
		batchSize: DefaultBatchSize,
	}
}

// BuildSnowflakeDSN creates a DSN using Snowflake's DSN builder
func BuildSnowflakeDSN(cfg *config.SnowflakeConfig) (string, error) {
	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return "", fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}
	return dsn, nil
}

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sql.DB {
	return c.db
}

// Converter returns the Snowflake type converter
func (c *SnowflakeConnector) Converter() *converter.TypeConverter {
	return c.conv
}

// Validate verifies the Snowflake connection and access rights
func (c *SnowflakeConnector) Validate() error {
	// Check basic connectivity and permissions
	var role, database, warehouse string
	err := c.db.QueryRow("SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse))

	// Verify we're connected to the correct database
	if !strings.EqualFold(database, c.cfg.Database) {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database, c.cfg.Database)
	}

	return nil
}

// Close closes the database connection
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}

// EnsureSchema creates a schema if it doesn't exist
func (c *SnowflakeConnector) EnsureSchema(ctx context.Context, schema string) error {
	if schema == "" {
		return nil
	}
	_, err := c.ExecWithTimeout(ctx, "CREATE SCHEMA IF NOT EXISTS "+c.conv.QuoteIdentifier(schema), DefaultStatementTimeout)
	if err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", schema, err)
	}
	return nil
}

// CreateTableIfNotExists creates a table with the specified columns if it doesn't exist
func (c *SnowflakeConnector) CreateTableIfNotExists(
	ctx context.Context,
	schema string,
	table string,
	columnDefs []string,
	primaryKey string,
) error {
	fullTableName := c.conv.QualifiedName(schema, table)

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s",
		fullTableName,
		strings.Join(columnDefs, ",\n\t"))
	if primaryKey != "" {
		createSQL += fmt.Sprintf(",\n\tPRIMARY KEY (%s)", primaryKey)
	}
	createSQL += "\n)"

	if _, err := c.ExecWithTimeout(ctx, createSQL, DefaultStatementTimeout); err != nil {
		return fmt.Errorf("failed to create table %s: %w", fullTableName, err)
	}

	c.logger.Info("Ensured table exists", zap.String("table", fullTableName))
	return nil
}

// TruncateTable removes every row of a table
func (c *SnowflakeConnector) TruncateTable(ctx context.Context, schema, table string) error {
	fullTableName := c.conv.QualifiedName(schema, table)
	if _, err := c.ExecWithTimeout(ctx, "TRUNCATE TABLE IF EXISTS "+fullTableName, DefaultStatementTimeout); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", fullTableName, err)
	}
	return nil
}

// BulkInsert loads rows through batched multi-row INSERTs
func (c *SnowflakeConnector) BulkInsert(
	ctx context.Context,
	schema string,
	table string,
	columns []string,
	valueRows [][]interface{},
) (int64, error) {
	return batchInsert(ctx, c.ExecWithTimeout, c.logger, c.conv, schema, table, columns, valueRows, c.batchSize)
}

// CountRows returns the number of rows in a table
func (c *SnowflakeConnector) CountRows(ctx context.Context, schema, table, where string) (int64, error) {
	return countRows(ctx, c.db, c.conv, schema, table, where)
}

// QueryWithTimeout executes a query with a timeout
func (c *SnowflakeConnector) QueryWithTimeout(
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
	time.AfterFunc(timeout, cancel)
	return rows, nil
}

// ExecWithTimeout executes a statement with a timeout
func (c *SnowflakeConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}
