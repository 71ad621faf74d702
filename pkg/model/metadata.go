// pkg/model/metadata.go
package model

import "strings"

// Logical data types of dataset columns
const (
	TypeUUID      = "UUID"
	TypeTimestamp = "TIMESTAMP"
	TypeVarchar   = "VARCHAR"
	TypeFloat     = "FLOAT"
	TypeInteger   = "INTEGER"
	TypeBoolean   = "BOOLEAN"
)

// TableMetadata contains the structure information for a dataset table
type TableMetadata struct {
	Schema      string   // Schema name
	Table       string   // Table name
	Columns     []Column // Column definitions
	PrimaryKeys []string // List of primary key column names
}

// Column represents metadata about a dataset column
type Column struct {
	Name         string // Column name
	DataType     string // Logical data type
	PgType       string // Mapped SQL type, filled by the converter
	Nullable     bool   // Whether column allows NULL values
	IsPrimaryKey bool   // Whether column is part of primary key
}

// recordColumns lists the TestRecord columns in output order
var recordColumns = []Column{
	{Name: ColumnTestID, DataType: TypeUUID, IsPrimaryKey: true},
	{Name: ColumnDate, DataType: TypeTimestamp},
	{Name: ColumnDeviceID, DataType: TypeVarchar},
	{Name: ColumnPartNumber, DataType: TypeVarchar},
	{Name: ColumnManufacturer, DataType: TypeVarchar},
	{Name: ColumnTestType, DataType: TypeVarchar},
	{Name: ColumnBeamEnergyMeV, DataType: TypeFloat, Nullable: true},
	{Name: ColumnDoseKrad, DataType: TypeFloat, Nullable: true},
	{Name: ColumnFluenceCm2, DataType: TypeFloat, Nullable: true},
	{Name: ColumnVoltageV, DataType: TypeFloat, Nullable: true},
	{Name: ColumnCurrentMA, DataType: TypeFloat, Nullable: true},
	{Name: ColumnErrorCount, DataType: TypeInteger, Nullable: true},
	{Name: ColumnFailure, DataType: TypeBoolean},
	{Name: ColumnNotes, DataType: TypeVarchar},
	{Name: ColumnTestFixture, DataType: TypeVarchar},
	{Name: ColumnTempC, DataType: TypeFloat, Nullable: true},
	{Name: ColumnOperator, DataType: TypeVarchar},
}

// RecordColumns returns a copy of the TestRecord column definitions in output order
func RecordColumns() []Column {
	columns := make([]Column, len(recordColumns))
	copy(columns, recordColumns)
	return columns
}

// ColumnNames returns the TestRecord column names in output order
func ColumnNames() []string {
	names := make([]string, len(recordColumns))
	for i, col := range recordColumns {
		names[i] = col.Name
	}
	return names
}

// NumericColumnNames returns the columns eligible for missing-value injection
func NumericColumnNames() []string {
	var names []string
	for _, col := range recordColumns {
		if col.IsNumeric() {
			names = append(names, col.Name)
		}
	}
	return names
}

// IsColumn reports whether name is a TestRecord column
func IsColumn(name string) bool {
	for _, col := range recordColumns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// IsNumericColumn reports whether name is a numeric TestRecord column
func IsNumericColumn(name string) bool {
	for _, col := range recordColumns {
		if col.Name == name {
			return col.IsNumeric()
		}
	}
	return false
}

// NewTableMetadata describes the TestRecord table under the given schema and table name
func NewTableMetadata(schema, table string) *TableMetadata {
	return &TableMetadata{
		Schema:      schema,
		Table:       table,
		Columns:     RecordColumns(),
		PrimaryKeys: []string{ColumnTestID},
	}
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the names of the table's columns in order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

// FullName returns the schema-qualified table name
func (tm *TableMetadata) FullName() string {
	if tm.Schema == "" {
		return tm.Table
	}
	return tm.Schema + "." + tm.Table
}

// IsUUIDColumn checks if a column should be treated as a UUID
// based on name pattern or data type
func (col *Column) IsUUIDColumn() bool {
	name := normalizeColumnName(col.Name)
	if name == "uuid" || hasSuffix(name, "_uuid") {
		return true
	}
	return strings.EqualFold(col.DataType, TypeUUID)
}

// IsNumeric reports whether the column holds numbers
func (col *Column) IsNumeric() bool {
	return col.DataType == TypeFloat || col.DataType == TypeInteger
}

// Helper functions for case-insensitive string operations
func normalizeColumnName(name string) string {
	return strings.ToLower(name)
}

func hasPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix)
}

func hasSuffix(s, suffix string) bool {
	return strings.HasSuffix(
		strings.ToLower(s),
		strings.ToLower(suffix),
	)
}
