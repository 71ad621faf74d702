// pkg/converter/mapping.go
package converter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

var postgresTypes = map[string]string{
	model.TypeUUID:      "UUID",
	model.TypeTimestamp: "TIMESTAMP",
	model.TypeVarchar:   "TEXT",
	model.TypeFloat:     "DOUBLE PRECISION",
	model.TypeInteger:   "INTEGER",
	model.TypeBoolean:   "BOOLEAN",
}

var snowflakeTypes = map[string]string{
	model.TypeUUID:      "VARCHAR(36)",
	model.TypeTimestamp: "TIMESTAMP_NTZ",
	model.TypeVarchar:   "VARCHAR",
	model.TypeFloat:     "FLOAT",
	model.TypeInteger:   "NUMBER(38,0)",
	model.TypeBoolean:   "BOOLEAN",
}

// MapType converts a logical column type to the dialect's SQL type
func (c *TypeConverter) MapType(logicalType string) (string, error) {
	types := postgresTypes
	if c.config.Dialect == DialectSnowflake {
		types = snowflakeTypes
	}

	logicalType = strings.ToUpper(strings.TrimSpace(logicalType))
	sqlType, ok := types[logicalType]
	if !ok {
		c.logger.Warn("Unknown column type encountered",
			zap.String("type", logicalType),
			zap.String("dialect", string(c.config.Dialect)))
		return "", fmt.Errorf("unknown column type: %q", logicalType)
	}

	if logicalType == model.TypeVarchar && c.config.MaxVarcharLength > 0 {
		return fmt.Sprintf("VARCHAR(%d)", c.config.MaxVarcharLength), nil
	}
	return sqlType, nil
}

// MapTableMetadata returns a copy of the metadata with every column's SQL type filled in
func (c *TypeConverter) MapTableMetadata(metadata *model.TableMetadata) (*model.TableMetadata, error) {
	mapped := &model.TableMetadata{
		Schema:      metadata.Schema,
		Table:       metadata.Table,
		Columns:     make([]model.Column, len(metadata.Columns)),
		PrimaryKeys: append([]string(nil), metadata.PrimaryKeys...),
	}

	for i, col := range metadata.Columns {
		sqlType, err := c.MapType(col.DataType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		col.PgType = sqlType
		mapped.Columns[i] = col
	}
	return mapped, nil
}
