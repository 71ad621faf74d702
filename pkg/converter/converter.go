// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// Dialect selects the SQL flavour of generated DDL and identifiers
type Dialect string

// Supported dialects
const (
	DialectPostgres  Dialect = "postgres"
	DialectSnowflake Dialect = "snowflake"
)

// DefaultTimestampLayout renders timestamps as ISO 8601 with microseconds
const DefaultTimestampLayout = "2006-01-02T15:04:05.000000"

// TypeConverter handles mapping and conversion of data types and values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Target SQL dialect
	Dialect Dialect
	// Length of text columns; zero leaves them unbounded
	MaxVarcharLength int
	// Layout for timestamps in text output
	TimestampLayout string
	// Text written for true and false in text output
	TrueText  string
	FalseText string
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		Dialect:         DialectPostgres,
		TimestampLayout: DefaultTimestampLayout,
		TrueText:        "True",
		FalseText:       "False",
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.Dialect == "" {
		config.Dialect = defaults.Dialect
	}
	if config.TimestampLayout == "" {
		config.TimestampLayout = defaults.TimestampLayout
	}
	if config.TrueText == "" && config.FalseText == "" {
		config.TrueText, config.FalseText = defaults.TrueText, defaults.FalseText
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// Dialect returns the configured SQL dialect
func (c *TypeConverter) Dialect() Dialect {
	return c.config.Dialect
}

// GenerateColumnDefinitions creates column definitions for a CREATE TABLE statement
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType := col.PgType
		if sqlType == "" {
			var err error
			sqlType, err = c.MapType(col.DataType)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Name, err)
			}
		}

		nullability := "NULL"
		if col.IsPrimaryKey || !col.Nullable {
			nullability = "NOT NULL"
		}

		def := fmt.Sprintf("%s %s %s",
			c.QuoteIdentifier(col.Name),
			sqlType,
			nullability)

		definitions = append(definitions, def)
	}

	return definitions, nil
}

// PrimaryKeyClause returns the quoted, comma-joined primary key columns
func (c *TypeConverter) PrimaryKeyClause(metadata *model.TableMetadata) string {
	quoted := make([]string, len(metadata.PrimaryKeys))
	for i, pk := range metadata.PrimaryKeys {
		quoted[i] = c.QuoteIdentifier(pk)
	}
	return strings.Join(quoted, ", ")
}

// QuoteIdentifier quotes an identifier so mixed-case column names survive
func (c *TypeConverter) QuoteIdentifier(name string) string {
	if c.config.Dialect == DialectPostgres {
		return pq.QuoteIdentifier(name)
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedName returns the quoted schema-qualified name of a table
func (c *TypeConverter) QualifiedName(schema, table string) string {
	if schema == "" {
		return c.QuoteIdentifier(table)
	}
	return c.QuoteIdentifier(schema) + "." + c.QuoteIdentifier(table)
}

// CreateTableStatement renders the full CREATE TABLE IF NOT EXISTS statement for a table
func (c *TypeConverter) CreateTableStatement(metadata *model.TableMetadata) (string, error) {
	defs, err := c.GenerateColumnDefinitions(metadata)
	if err != nil {
		return "", err
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s",
		c.QualifiedName(metadata.Schema, metadata.Table),
		strings.Join(defs, ",\n\t"))
	if len(metadata.PrimaryKeys) > 0 {
		stmt += fmt.Sprintf(",\n\tPRIMARY KEY (%s)", c.PrimaryKeyClause(metadata))
	}
	return stmt + "\n)", nil
}

// Placeholder returns the bind parameter for the n-th (1-based) argument
func (c *TypeConverter) Placeholder(n int) string {
	if c.config.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// InsertStatement renders a multi-row INSERT for rowCount rows of the given columns
func (c *TypeConverter) InsertStatement(schema, table string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = c.QuoteIdentifier(col)
	}

	placeholders := make([]string, rowCount)
	for j := 0; j < rowCount; j++ {
		rowPlaceholders := make([]string, len(columns))
		for k := range columns {
			rowPlaceholders[k] = c.Placeholder(j*len(columns) + k + 1)
		}
		placeholders[j] = "(" + strings.Join(rowPlaceholders, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		c.QualifiedName(schema, table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))
}
