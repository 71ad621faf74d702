// pkg/writer/jsonl.go
package writer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/converter"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// JSONLinesWriter writes one JSON object per record, keys in column order
type JSONLinesWriter struct {
	path   string
	conv   *converter.TypeConverter
	logger *zap.Logger
	stdout io.Writer
}

// NewJSONLinesWriter creates a JSON Lines writer for path. A path of "-" writes to standard output.
func NewJSONLinesWriter(path string, logger *zap.Logger) *JSONLinesWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONLinesWriter{
		path:   path,
		conv:   converter.NewTypeConverter(logger),
		logger: logger,
		stdout: os.Stdout,
	}
}

// Write saves the dataset, creating parent directories and replacing any existing file
func (w *JSONLinesWriter) Write(ctx context.Context, ds *model.Dataset) (WriteResult, error) {
	start := time.Now()
	result := WriteResult{Sink: "jsonl", Target: w.path}

	n, err := writeFile(w.path, w.stdout, func(out io.Writer) (int64, error) {
		return w.Encode(ctx, out, ds)
	})
	if err != nil {
		return result, err
	}

	result.RowsWritten = n
	result.Duration = time.Since(start)
	w.logger.Info(fmt.Sprintf("Synthetic data saved to %s", w.path),
		zap.Int64("rows", n),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// Encode writes every record to out as a JSON line. Null and missing cells become null.
func (w *JSONLinesWriter) Encode(ctx context.Context, out io.Writer, ds *model.Dataset) (int64, error) {
	columns := ds.Metadata.ColumnNames()

	keys := make([][]byte, len(columns))
	for i, col := range columns {
		key, err := json.Marshal(col)
		if err != nil {
			return 0, NewErrorRecord(err, ErrorCategoryConversion).WithTarget(w.path)
		}
		keys[i] = key
	}

	var buf bytes.Buffer
	var rows int64
	for i := range ds.Records {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return rows, err
			}
		}

		buf.Reset()
		if err := w.encodeRecord(&buf, &ds.Records[i], columns, keys); err != nil {
			return rows, NewErrorRecord(err, ErrorCategoryConversion).WithTarget(w.path).WithRows(i, i+1)
		}
		if _, err := out.Write(buf.Bytes()); err != nil {
			return rows, NewErrorRecord(err, ErrorCategoryFile).WithTarget(w.path).WithRows(i, i+1)
		}
		rows++
	}
	return rows, nil
}

func (w *JSONLinesWriter) encodeRecord(buf *bytes.Buffer, rec *model.TestRecord, columns []string, keys [][]byte) error {
	buf.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(keys[i])
		buf.WriteByte(':')

		cell, err := rec.Value(col)
		if err != nil {
			return err
		}
		value, err := w.conv.ConvertValue(cell)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		// timestamps use the same layout as the CSV output
		if t, ok := value.(time.Time); ok {
			if value, err = w.conv.FormatText(t); err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		buf.Write(encoded)
	}
	buf.WriteString("}\n")
	return nil
}
