package assembler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// GenerationMetrics tracks metrics for one generation run
type GenerationMetrics struct {
	mu                sync.Mutex
	logger            *zap.Logger
	StartTime         time.Time
	EndTime           time.Time
	RequestedRows     int
	RowsGenerated     int
	ChunksProcessed   int
	Failures          int
	TestTypeCounts    map[string]int
	MissingCells      map[string]int
	WorkerUtilization map[int]time.Duration
}

// NewGenerationMetrics creates a new GenerationMetrics instance
func NewGenerationMetrics(logger *zap.Logger) *GenerationMetrics {
	return &GenerationMetrics{
		logger:            logger,
		TestTypeCounts:    make(map[string]int),
		MissingCells:      make(map[string]int),
		WorkerUtilization: make(map[int]time.Duration),
	}
}

// Start resets the metrics for a run of rowCount records
func (gm *GenerationMetrics) Start(rowCount int) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.StartTime = time.Now()
	gm.EndTime = time.Time{}
	gm.RequestedRows = rowCount
	gm.RowsGenerated = 0
	gm.ChunksProcessed = 0
	gm.Failures = 0
	gm.TestTypeCounts = make(map[string]int)
	gm.MissingCells = make(map[string]int)
	gm.WorkerUtilization = make(map[int]time.Duration)
}

// RecordChunk records metrics for a finished chunk
func (gm *GenerationMetrics) RecordChunk(result ChunkResult) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.ChunksProcessed++
	gm.RowsGenerated += result.Rows
	gm.Failures += result.Failures
	gm.WorkerUtilization[result.WorkerID] += result.Duration
}

// Complete summarises the finished dataset and logs the run
func (gm *GenerationMetrics) Complete(ds *model.Dataset, missingColumns []string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.EndTime = time.Now()
	for i := range ds.Records {
		gm.TestTypeCounts[ds.Records[i].TestType]++
	}
	for _, col := range missingColumns {
		gm.MissingCells[col] = ds.MissingCount(col)
	}

	if gm.logger != nil {
		gm.logger.Info("Generation completed",
			zap.Int("rows", gm.RowsGenerated),
			zap.Int("failures", gm.Failures),
			zap.Int("chunks", gm.ChunksProcessed),
			zap.Any("missingCells", gm.MissingCells),
			zap.Duration("duration", gm.duration()),
			zap.Float64("throughput", gm.rowsPerSecond()))
	}
}

// Duration returns the duration of the run
func (gm *GenerationMetrics) Duration() time.Duration {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return gm.duration()
}

func (gm *GenerationMetrics) duration() time.Duration {
	if gm.StartTime.IsZero() {
		return 0
	}
	if gm.EndTime.IsZero() {
		return time.Since(gm.StartTime)
	}
	return gm.EndTime.Sub(gm.StartTime)
}

// RowsPerSecond calculates the generation throughput
func (gm *GenerationMetrics) RowsPerSecond() float64 {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return gm.rowsPerSecond()
}

func (gm *GenerationMetrics) rowsPerSecond() float64 {
	seconds := gm.duration().Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(gm.RowsGenerated) / seconds
}

// FailureRate returns the share of generated records that failed
func (gm *GenerationMetrics) FailureRate() float64 {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return percentage(float64(gm.Failures), float64(gm.RowsGenerated)) / 100
}

// GenerateMetricsReport creates a human readable metrics report
func (gm *GenerationMetrics) GenerateMetricsReport() string {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, `
Generation Metrics Report
=========================
Duration:                %s
Rows Generated:          %d / %d
Chunks Processed:        %d
Failures:                %d (%.1f%%)
Average Throughput:      %.2f rows/sec
`,
		gm.duration().Round(time.Millisecond),
		gm.RowsGenerated, gm.RequestedRows,
		gm.ChunksProcessed,
		gm.Failures, percentage(float64(gm.Failures), float64(gm.RowsGenerated)),
		gm.rowsPerSecond(),
	)

	sb.WriteString("\nTest Types\n----------\n")
	for _, tt := range sortedKeys(gm.TestTypeCounts) {
		count := gm.TestTypeCounts[tt]
		fmt.Fprintf(&sb, "- %s: %d (%.1f%%)\n", tt, count, percentage(float64(count), float64(gm.RowsGenerated)))
	}

	if len(gm.MissingCells) > 0 {
		sb.WriteString("\nMissing Cells\n-------------\n")
		for _, col := range sortedKeys(gm.MissingCells) {
			count := gm.MissingCells[col]
			fmt.Fprintf(&sb, "- %s: %d (%.2f%%)\n", col, count, percentage(float64(count), float64(gm.RowsGenerated)))
		}
	}

	return sb.String()
}

// ToJSON serializes metrics to JSON
func (gm *GenerationMetrics) ToJSON() ([]byte, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return json.Marshal(struct {
		Duration       string         `json:"duration"`
		RequestedRows  int            `json:"requestedRows"`
		RowsGenerated  int            `json:"rowsGenerated"`
		Failures       int            `json:"failures"`
		Throughput     float64        `json:"throughput"`
		TestTypeCounts map[string]int `json:"testTypeCounts"`
		MissingCells   map[string]int `json:"missingCells"`
	}{
		Duration:       gm.duration().String(),
		RequestedRows:  gm.RequestedRows,
		RowsGenerated:  gm.RowsGenerated,
		Failures:       gm.Failures,
		Throughput:     gm.rowsPerSecond(),
		TestTypeCounts: gm.TestTypeCounts,
		MissingCells:   gm.MissingCells,
	})
}

// percentage safely calculates a percentage, avoiding division by zero
func percentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
