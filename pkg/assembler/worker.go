package assembler

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// WorkerState represents the current state of a worker
type WorkerState string

const (
	WorkerStateIdle      WorkerState = "idle"
	WorkerStateWorking   WorkerState = "working"
	WorkerStateCompleted WorkerState = "completed"
)

// Worker generates chunks of records into a shared slice.
// Each chunk owns a disjoint index range, so workers never write the same slot.
type Worker struct {
	ID        int
	gen       *generator.RecordGenerator
	source    generator.Source
	logger    *zap.Logger
	state     WorkerState
	stateLock sync.Mutex
}

// NewWorker creates a new worker
func NewWorker(id int, gen *generator.RecordGenerator, source generator.Source, logger *zap.Logger) *Worker {
	return &Worker{
		ID:     id,
		gen:    gen,
		source: source,
		logger: logger.With(zap.Int("workerID", id)),
		state:  WorkerStateIdle,
	}
}

func (w *Worker) setState(state WorkerState) {
	w.stateLock.Lock()
	defer w.stateLock.Unlock()

	prevState := w.state
	w.state = state

	if prevState != state {
		w.logger.Debug("Worker state changed",
			zap.String("from", string(prevState)),
			zap.String("to", string(state)))
	}
}

// Start processes jobs until the channel is closed
func (w *Worker) Start(jobs <-chan ChunkJob, results chan<- ChunkResult, records []model.TestRecord) {
	w.logger.Debug("Worker started")

	for job := range jobs {
		results <- w.ProcessJob(job, records)
	}

	w.setState(WorkerStateCompleted)
	w.logger.Debug("Worker stopping due to closed job channel")
}

// ProcessJob generates the records of one chunk into records[job.Start:job.End]
func (w *Worker) ProcessJob(job ChunkJob, records []model.TestRecord) ChunkResult {
	w.setState(WorkerStateWorking)

	result := ChunkResult{
		JobID:     job.ID,
		WorkerID:  w.ID,
		StartTime: time.Now(),
	}

	for i := job.Start; i < job.End; i++ {
		records[i] = w.gen.Generate(w.source.Record(i), i)
		if records[i].Failure {
			result.Failures++
		}
		result.Rows++
	}
	result.Duration = time.Since(result.StartTime)

	w.logger.Debug("Generated chunk",
		zap.Int("chunk", job.ID),
		zap.Int("start", job.Start),
		zap.Int("end", job.End),
		zap.Duration("duration", result.Duration))

	w.setState(WorkerStateIdle)
	return result
}
