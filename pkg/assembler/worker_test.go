package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

func TestWorker_ProcessJob(t *testing.T) {
	gen, err := generator.NewRecordGenerator(generator.DefaultVocabulary(),
		generator.WithReferenceTime(testReference))
	require.NoError(t, err)
	source := generator.NewSource(42)

	core, logs := observer.New(zapcore.DebugLevel)
	w := NewWorker(3, gen, source, zap.New(core))

	records := make([]model.TestRecord, 10)
	result := w.ProcessJob(ChunkJob{ID: 1, Start: 4, End: 8}, records)

	assert.Equal(t, 1, result.JobID)
	assert.Equal(t, 3, result.WorkerID)
	assert.Equal(t, 4, result.Rows)

	failures := 0
	for i := 4; i < 8; i++ {
		assert.Equal(t, gen.Generate(source.Record(i), i), records[i])
		if records[i].Failure {
			failures++
		}
	}
	assert.Equal(t, failures, result.Failures)
	assert.Empty(t, records[0].DeviceID)
	assert.Empty(t, records[8].DeviceID)

	// idle -> working -> idle
	assert.Equal(t, 2, logs.FilterMessage("Worker state changed").Len())
	assert.Equal(t, WorkerStateIdle, w.state)
}

func TestWorker_StartDrainsQueue(t *testing.T) {
	gen, err := generator.NewRecordGenerator(generator.DefaultVocabulary(),
		generator.WithReferenceTime(testReference))
	require.NoError(t, err)

	jobs := make(chan ChunkJob, 2)
	results := make(chan ChunkResult, 2)
	jobs <- ChunkJob{ID: 0, Start: 0, End: 3}
	jobs <- ChunkJob{ID: 1, Start: 3, End: 5}
	close(jobs)

	w := NewWorker(0, gen, generator.NewSource(1), zap.NewNop())
	records := make([]model.TestRecord, 5)
	w.Start(jobs, results, records)
	close(results)

	rows := 0
	for r := range results {
		rows += r.Rows
	}
	assert.Equal(t, 5, rows)
	assert.Equal(t, WorkerStateCompleted, w.state)
	for i, rec := range records {
		assert.Equal(t, generator.DeviceID(i), rec.DeviceID)
	}
}
