// pkg/converter/values.go
package converter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// ConvertValue converts a record cell to a database/sql driver value.
// Null and missing cells become nil.
func (c *TypeConverter) ConvertValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case model.Float:
		if f, ok := v.Get(); ok {
			return f, nil
		}
		return nil, nil
	case model.Int:
		if n, ok := v.Get(); ok {
			return int64(n), nil
		}
		return nil, nil
	case int:
		return int64(v), nil
	case time.Time:
		return v.UTC(), nil
	case string, bool, float64, int64:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to a driver value", value)
	}
}

// RecordValues converts a record to driver values in the given column order
func (c *TypeConverter) RecordValues(rec *model.TestRecord, columns []string) ([]interface{}, error) {
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		cell, err := rec.Value(col)
		if err != nil {
			return nil, err
		}
		if values[i], err = c.ConvertValue(cell); err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
	}
	return values, nil
}

// DatasetValues converts every record of a dataset to driver values in metadata column order
func (c *TypeConverter) DatasetValues(ds *model.Dataset) ([][]interface{}, error) {
	columns := ds.Metadata.ColumnNames()
	rows := make([][]interface{}, len(ds.Records))
	for i := range ds.Records {
		row, err := c.RecordValues(&ds.Records[i], columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// FormatText renders a record cell as delimited-text output.
// Null and missing cells render as the empty string.
func (c *TypeConverter) FormatText(value interface{}) (string, error) {
	v, err := c.ConvertValue(value)
	if err != nil {
		return "", err
	}

	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		if v {
			return c.config.TrueText, nil
		}
		return c.config.FalseText, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case time.Time:
		return v.Format(c.config.TimestampLayout), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// RecordText renders a record as text cells in the given column order
func (c *TypeConverter) RecordText(rec *model.TestRecord, columns []string) ([]string, error) {
	cells := make([]string, len(columns))
	for i, col := range columns {
		cell, err := rec.Value(col)
		if err != nil {
			return nil, err
		}
		if cells[i], err = c.FormatText(cell); err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
	}
	return cells, nil
}
