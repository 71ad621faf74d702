// pkg/writer/csv.go
package writer

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/converter"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// contextCheckInterval is how many rows are encoded between context checks
const contextCheckInterval = 1000

// CSVWriter writes a dataset as a comma-separated file with a header row
type CSVWriter struct {
	path   string
	conv   *converter.TypeConverter
	logger *zap.Logger
	stdout io.Writer
}

// NewCSVWriter creates a CSV writer for path. A path of "-" writes to standard output.
func NewCSVWriter(path string, logger *zap.Logger) *CSVWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVWriter{
		path:   path,
		conv:   converter.NewTypeConverter(logger),
		logger: logger,
		stdout: os.Stdout,
	}
}

// Write saves the dataset, creating parent directories and replacing any existing file
func (w *CSVWriter) Write(ctx context.Context, ds *model.Dataset) (WriteResult, error) {
	start := time.Now()
	result := WriteResult{Sink: "csv", Target: w.path}

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

// Encode writes the header and every record to out
func (w *CSVWriter) Encode(ctx context.Context, out io.Writer, ds *model.Dataset) (int64, error) {
	columns := ds.Metadata.ColumnNames()
	cw := csv.NewWriter(out)

	if err := cw.Write(columns); err != nil {
		return 0, NewErrorRecord(err, ErrorCategoryFile).WithTarget(w.path)
	}

	var rows int64
	for i := range ds.Records {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return rows, err
			}
		}

		cells, err := w.conv.RecordText(&ds.Records[i], columns)
		if err != nil {
			return rows, NewErrorRecord(err, ErrorCategoryConversion).WithTarget(w.path).WithRows(i, i+1)
		}
		if err := cw.Write(cells); err != nil {
			return rows, NewErrorRecord(err, ErrorCategoryFile).WithTarget(w.path).WithRows(i, i+1)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, NewErrorRecord(err, ErrorCategoryFile).WithTarget(w.path)
	}
	return rows, nil
}

// writeFile runs encode against path, or against stdout when path is StdoutPath.
// The file is written through a buffer and replaced if it already exists.
func writeFile(path string, stdout io.Writer, encode func(io.Writer) (int64, error)) (n int64, err error) {
	if path == StdoutPath {
		return encode(stdout)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, NewErrorRecord(fmt.Errorf("failed to create output directory: %w", err), ErrorCategoryFile).WithTarget(path)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, NewErrorRecord(fmt.Errorf("failed to create output file: %w", err), ErrorCategoryFile).WithTarget(path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = NewErrorRecord(fmt.Errorf("failed to close output file: %w", closeErr), ErrorCategoryFile).WithTarget(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if n, err = encode(bw); err != nil {
		return n, err
	}
	if err = bw.Flush(); err != nil {
		return n, NewErrorRecord(fmt.Errorf("failed to flush output file: %w", err), ErrorCategoryFile).WithTarget(path)
	}
	return n, nil
}
