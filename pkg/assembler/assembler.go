// Package assembler drives record generation over a row count and applies the
// dataset-wide missing-value pass.
//
// Records are generated from per-index random streams, so a dataset is
// reproducible for a fixed seed and reference time whatever the worker count.
package assembler

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// Defaults for a generation run
const (
	DefaultRowCount    = 100_000
	DefaultChunkSize   = 5000
	DefaultWorkerCount = 1
	maxWorkerCount     = 64
)

// DatasetAssembler orchestrates bulk generation and dataset-wide corruption
type DatasetAssembler struct {
	gen         *generator.RecordGenerator
	source      generator.Source
	metadata    *model.TableMetadata
	plan        MissingPlan
	metrics     *GenerationMetrics
	logger      *zap.Logger
	workerCount int
	chunkSize   int
}

// AssemblerOption configures a DatasetAssembler
type AssemblerOption func(*DatasetAssembler)

// WithWorkerCount sets the number of generation goroutines. Zero sizes the pool from the CPU count.
func WithWorkerCount(count int) AssemblerOption {
	return func(a *DatasetAssembler) {
		if count == 0 {
			count = calculateOptimalWorkerCount()
		}
		if count > 0 {
			a.workerCount = count
		}
	}
}

// WithChunkSize sets the number of records per worker job
func WithChunkSize(size int) AssemblerOption {
	return func(a *DatasetAssembler) {
		if size > 0 {
			a.chunkSize = size
		}
	}
}

// WithMissingPlan replaces the default missing-value plan. A nil or empty plan disables the pass.
func WithMissingPlan(plan MissingPlan) AssemblerOption {
	return func(a *DatasetAssembler) {
		a.plan = plan
	}
}

// WithTableMetadata sets the table description attached to assembled datasets
func WithTableMetadata(metadata *model.TableMetadata) AssemblerOption {
	return func(a *DatasetAssembler) {
		if metadata != nil {
			a.metadata = metadata
		}
	}
}

// NewDatasetAssembler creates a new assembler
func NewDatasetAssembler(
	gen *generator.RecordGenerator,
	source generator.Source,
	logger *zap.Logger,
	opts ...AssemblerOption,
) (*DatasetAssembler, error) {
	if gen == nil {
		return nil, fmt.Errorf("record generator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &DatasetAssembler{
		gen:         gen,
		source:      source,
		metadata:    model.NewTableMetadata("", ""),
		plan:        DefaultMissingPlan(),
		metrics:     NewGenerationMetrics(logger),
		logger:      logger,
		workerCount: DefaultWorkerCount,
		chunkSize:   DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid missing-value plan: %w", err)
	}
	return a, nil
}

// Metrics returns the metrics of the latest run
func (a *DatasetAssembler) Metrics() *GenerationMetrics {
	return a.metrics
}

// WorkerCount returns the size of the generation pool
func (a *DatasetAssembler) WorkerCount() int {
	return a.workerCount
}

// Assemble generates rowCount records in index order and applies the missing-value plan.
// A zero row count yields an empty dataset; a negative one is rejected.
func (a *DatasetAssembler) Assemble(rowCount int) (*model.Dataset, error) {
	if rowCount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRowCount, rowCount)
	}

	a.logger.Info("Generating synthetic radiation test rows",
		zap.Int("rows", rowCount),
		zap.Uint64("seed", a.source.Seed()),
		zap.Int("workers", a.workerCount),
		zap.Time("referenceTime", a.gen.ReferenceTime()))

	a.metrics.Start(rowCount)
	ds := model.NewDataset(a.metadata, rowCount, a.source.Seed(), a.gen.ReferenceTime())

	a.generate(ds.Records)

	ops, err := InjectMissing(ds, a.plan, a.source)
	if err != nil {
		return nil, err
	}
	ds.RecordCorruptions(ops)

	a.metrics.Complete(ds, a.plan.Columns())
	return ds, nil
}

// generate fills records through the worker pool; a single worker runs inline
func (a *DatasetAssembler) generate(records []model.TestRecord) {
	jobs := splitChunks(len(records), a.chunkSize)
	if len(jobs) == 0 {
		return
	}

	workerCount := a.workerCount
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	if workerCount <= 1 {
		w := NewWorker(0, a.gen, a.source, a.logger)
		for _, job := range jobs {
			a.metrics.RecordChunk(w.ProcessJob(job, records))
		}
		return
	}

	jobQueue := make(chan ChunkJob, len(jobs))
	resultQueue := make(chan ChunkResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(worker *Worker) {
			defer wg.Done()
			worker.Start(jobQueue, resultQueue, records)
		}(NewWorker(i, a.gen, a.source, a.logger))
	}

	for _, job := range jobs {
		jobQueue <- job
	}
	close(jobQueue)

	wg.Wait()
	close(resultQueue)

	for result := range resultQueue {
		a.metrics.RecordChunk(result)
	}
}

// calculateOptimalWorkerCount sizes the pool from the logical CPU count
func calculateOptimalWorkerCount() int {
	count := runtime.NumCPU()
	if count < 1 {
		count = 1
	}
	if count > maxWorkerCount {
		count = maxWorkerCount
	}
	return count
}
