// Package writer persists generated datasets to files and database tables.
package writer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/config"
	"github.com/David-Botos/radiation-fixtures/pkg/connector"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// StdoutPath selects standard output instead of a file
const StdoutPath = "-"

// Writer persists a dataset to one sink
type Writer interface {
	Write(ctx context.Context, ds *model.Dataset) (WriteResult, error)
}

// WriteResult summarizes one completed write
type WriteResult struct {
	Sink                string
	Target              string
	RunID               string
	RowsWritten         int64
	CorruptionsRecorded int
	Verification        *VerificationReport
	Duration            time.Duration
}

// Summary returns a one-line description of the write
func (r WriteResult) Summary() string {
	s := fmt.Sprintf("%s: wrote %d rows to %s in %v", r.Sink, r.RowsWritten, r.Target, r.Duration.Round(time.Millisecond))
	if r.RunID != "" {
		s += fmt.Sprintf(" (run %s, %d corruptions recorded)", r.RunID, r.CorruptionsRecorded)
	}
	return s
}

// New creates the writer for the configured sink. Database sinks also return the
// loader, which the caller must close.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Writer, connector.TableLoader, error) {
	switch cfg.Sink {
	case config.SinkCSV:
		return NewCSVWriter(cfg.OutputPath, logger), nil, nil
	case config.SinkJSONL:
		return NewJSONLinesWriter(cfg.OutputPath, logger), nil, nil
	case config.SinkPostgres, config.SinkSnowflake:
		loader, err := connector.NewConnectorFactory(cfg, logger).CreateTableLoader(ctx)
		if err != nil {
			return nil, nil, NewErrorRecord(err, ErrorCategoryConnection).WithTarget(cfg.Sink)
		}
		w, err := newTableSink(loader, cfg, logger)
		if err != nil {
			loader.Close()
			return nil, nil, err
		}
		return w, loader, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

// newTableSink checks the connection and permissions, then builds the table writer
func newTableSink(loader connector.TableLoader, cfg *config.Config, logger *zap.Logger) (*TableWriter, error) {
	if err := loader.Validate(); err != nil {
		return nil, NewErrorRecord(err, ErrorCategoryConnection).WithTarget(cfg.Sink)
	}
	return NewTableWriter(loader, logger,
		WithChunkSize(cfg.ChunkSize),
		WithTruncate(cfg.OutputTruncate),
		WithAudit(cfg.RecordCorruptions))
}
