package assembler

import (
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

var testReference = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestAssembler(t *testing.T, seed uint64, opts ...AssemblerOption) *DatasetAssembler {
	t.Helper()

	gen, err := generator.NewRecordGenerator(generator.DefaultVocabulary(),
		generator.WithReferenceTime(testReference))
	require.NoError(t, err)

	a, err := NewDatasetAssembler(gen, generator.NewSource(seed), zap.NewNop(), opts...)
	require.NoError(t, err)
	return a
}

func TestAssemble_FiveRows(t *testing.T) {
	a := newTestAssembler(t, 42)

	ds, err := a.Assemble(5)
	require.NoError(t, err)
	require.Equal(t, 5, ds.Len())

	ids := map[string]struct{}{}
	for i, rec := range ds.Records {
		assert.Equal(t, generator.DeviceID(i), rec.DeviceID)
		ids[rec.TestID] = struct{}{}

		n, ok := rec.ErrorCount.Get()
		require.True(t, ok)
		p := generator.FailureProbability(rec.DoseKrad, rec.FluenceCm2, n)
		assert.InDelta(t, p, rec.FailureProbability, 1e-12)
		assert.GreaterOrEqual(t, p, generator.BaseFailureRate)
		assert.LessOrEqual(t, p, generator.MaxFailureRate)

		failure, err := ds.Records[i].Value(model.ColumnFailure)
		require.NoError(t, err)
		assert.IsType(t, true, failure)
	}
	assert.Len(t, ids, 5)

	assert.Equal(t, []string{"D000000", "D000001", "D000002", "D000003", "D000004"},
		deviceIDs(ds))

	// round(0.01 * 5) == 0, so nothing is blanked
	assert.Empty(t, ds.Corruptions)
}

func TestAssemble_RowCountEdges(t *testing.T) {
	a := newTestAssembler(t, 42)

	_, err := a.Assemble(-1)
	assert.ErrorIs(t, err, ErrInvalidRowCount)

	ds, err := a.Assemble(0)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Corruptions)
}

func TestAssemble_Deterministic(t *testing.T) {
	first, err := newTestAssembler(t, 7).Assemble(3000)
	require.NoError(t, err)

	second, err := newTestAssembler(t, 7).Assemble(3000)
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Corruptions, second.Corruptions)

	parallel, err := newTestAssembler(t, 7, WithWorkerCount(4), WithChunkSize(128)).Assemble(3000)
	require.NoError(t, err)
	assert.Equal(t, first.Records, parallel.Records, "worker count must not change output")
	assert.Equal(t, first.Corruptions, parallel.Corruptions)

	other, err := newTestAssembler(t, 8).Assemble(3000)
	require.NoError(t, err)
	assert.NotEqual(t, first.Records[0].TestID, other.Records[0].TestID)
}

func TestAssemble_MissingFractions(t *testing.T) {
	const n = 20000
	a := newTestAssembler(t, 42, WithWorkerCount(3))

	ds, err := a.Assemble(n)
	require.NoError(t, err)

	planned := map[string]bool{}
	for _, col := range DefaultMissingColumns {
		planned[col] = true
		assert.Equal(t, 200, ds.MissingCount(col), "column %s", col)
	}
	for _, col := range model.ColumnNames() {
		if !planned[col] {
			assert.Zero(t, ds.MissingCount(col), "column %s must not be blanked", col)
		}
	}

	require.Len(t, ds.Corruptions, 200*len(DefaultMissingColumns))
	for _, op := range ds.Corruptions {
		assert.True(t, ds.Records[op.RowIndex].IsMissing(op.ColumnName))
		assert.Equal(t, ds.Records[op.RowIndex].DeviceID, op.RowIdentifier)
		assert.Equal(t, model.OperationMissingInjection, op.Operation)
	}

	metrics := a.Metrics()
	assert.Equal(t, n, metrics.RowsGenerated)
	assert.Equal(t, 200, metrics.MissingCells[model.ColumnTempC])
	assert.Equal(t, n, sum(metrics.TestTypeCounts))
}

func TestAssemble_TypeConditionedAfterCorruption(t *testing.T) {
	ds, err := newTestAssembler(t, 42).Assemble(5000)
	require.NoError(t, err)

	for _, rec := range ds.Records {
		if !rec.IsTID() {
			assert.NotEqual(t, model.CellPresent, rec.DoseKrad.State)
		}
		if !rec.IsSEE() {
			assert.NotEqual(t, model.CellPresent, rec.FluenceCm2.State)
		}
		if rec.TestType == model.TestTypeDDD {
			assert.False(t, rec.DoseKrad.Valid())
			assert.False(t, rec.FluenceCm2.Valid())
		}
	}
}

func TestAssemble_ColumnSelectionsIndependent(t *testing.T) {
	const n = 20000
	plan := MissingPlan{model.ColumnVoltageV: 0.5, model.ColumnTempC: 0.5}
	ds, err := newTestAssembler(t, 42, WithMissingPlan(plan)).Assemble(n)
	require.NoError(t, err)

	overlap := 0
	for _, rec := range ds.Records {
		if rec.VoltageV.IsMissing() && rec.TempC.IsMissing() {
			overlap++
		}
	}
	// independent selections overlap on about a quarter of the rows
	assert.InDelta(t, n/4, overlap, 400)
	assert.Zero(t, ds.MissingCount(model.ColumnCurrentMA))
}

func TestAssemble_EmptyPlan(t *testing.T) {
	ds, err := newTestAssembler(t, 42, WithMissingPlan(nil)).Assemble(1000)
	require.NoError(t, err)
	assert.Empty(t, ds.Corruptions)
	for _, col := range model.NumericColumnNames() {
		assert.Zero(t, ds.MissingCount(col))
	}
}

func TestNewDatasetAssembler_InvalidPlan(t *testing.T) {
	gen, err := generator.NewRecordGenerator(generator.DefaultVocabulary())
	require.NoError(t, err)

	tests := []struct {
		name string
		plan MissingPlan
		want error
	}{
		{"unknown column", MissingPlan{"humidity": 0.1}, ErrUnknownColumn},
		{"text column", MissingPlan{model.ColumnNotes: 0.1}, ErrUnknownColumn},
		{"negative fraction", MissingPlan{model.ColumnTempC: -0.1}, ErrInvalidFraction},
		{"fraction above one", MissingPlan{model.ColumnTempC: 1.5}, ErrInvalidFraction},
		{"NaN fraction", MissingPlan{model.ColumnTempC: math.NaN()}, ErrInvalidFraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDatasetAssembler(gen, generator.NewSource(1), nil, WithMissingPlan(tt.plan))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = NewDatasetAssembler(nil, generator.NewSource(1), nil)
	assert.Error(t, err)
}

func TestMissingCellCount(t *testing.T) {
	assert.Equal(t, 0, MissingCellCount(0.01, 5))
	assert.Equal(t, 1000, MissingCellCount(0.01, 100000))
	assert.Equal(t, 2, MissingCellCount(0.5, 3))
	assert.Equal(t, 2, MissingCellCount(0.5, 5))
	assert.Equal(t, 7, MissingCellCount(1, 7))
	assert.Equal(t, 0, MissingCellCount(0, 7))
}

func TestSampleWithoutReplacement(t *testing.T) {
	rng := generator.NewSource(3).Named("sample")

	picked := sampleWithoutReplacement(rng, 100, 30)
	require.Len(t, picked, 30)
	for i := 1; i < len(picked); i++ {
		assert.Less(t, picked[i-1], picked[i], "positions must be distinct and ascending")
	}

	all := sampleWithoutReplacement(rng, 10, 10)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)
}

func TestMissingPlan_ColumnsInSchemaOrder(t *testing.T) {
	plan := UniformMissingPlan([]string{model.ColumnTempC, model.ColumnDoseKrad, model.ColumnVoltageV}, 0.1)
	assert.Equal(t, []string{model.ColumnDoseKrad, model.ColumnVoltageV, model.ColumnTempC}, plan.Columns())
}

func TestSplitChunks(t *testing.T) {
	jobs := splitChunks(10, 4)
	require.Len(t, jobs, 3)
	assert.Equal(t, ChunkJob{ID: 0, Start: 0, End: 4}, jobs[0])
	assert.Equal(t, ChunkJob{ID: 2, Start: 8, End: 10}, jobs[2])
	assert.Equal(t, 2, jobs[2].Size())

	assert.Nil(t, splitChunks(0, 4))
	assert.Len(t, splitChunks(10, 0), 1)
}

func TestGenerationMetrics_Report(t *testing.T) {
	a := newTestAssembler(t, 42)
	_, err := a.Assemble(500)
	require.NoError(t, err)

	report := a.Metrics().GenerateMetricsReport()
	assert.Contains(t, report, "Rows Generated:          500 / 500")
	assert.Contains(t, report, "- voltage_V: 5 (1.00%)")

	raw, err := a.Metrics().ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(500), decoded["rowsGenerated"])

	rate := a.Metrics().FailureRate()
	assert.GreaterOrEqual(t, rate, 0.0)
	assert.LessOrEqual(t, rate, 1.0)
}

func deviceIDs(ds *model.Dataset) []string {
	ids := make([]string, ds.Len())
	for i, rec := range ds.Records {
		ids[i] = rec.DeviceID
	}
	return ids
}

func sum(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}
