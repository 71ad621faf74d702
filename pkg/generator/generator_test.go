package generator

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

var testReference = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) *RecordGenerator {
	t.Helper()
	gen, err := NewRecordGenerator(DefaultVocabulary(), WithReferenceTime(testReference))
	require.NoError(t, err)
	return gen
}

// fixedRand returns the same word for every call
type fixedRand struct {
	u uint64
}

func (r fixedRand) Uint64() uint64 { return r.u }
func (r fixedRand) IntN(n int) int { return 0 }
func (r fixedRand) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0xAB
	}
	return len(p), nil
}

// firstChoice draws continuous values from a real stream but always picks index 0
type firstChoice struct {
	*Stream
}

func (firstChoice) IntN(n int) int { return 0 }

func TestNewRecordGenerator_EmptyVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.Operators = nil

	_, err := NewRecordGenerator(vocab)
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestNewRecordGenerator_NegativeLookback(t *testing.T) {
	_, err := NewRecordGenerator(DefaultVocabulary(), WithLookbackDays(-1))
	assert.Error(t, err)
}

func TestNewRecordGenerator_CopiesVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.TestTypes = []string{"DDD"}
	gen, err := NewRecordGenerator(vocab)
	require.NoError(t, err)

	vocab.TestTypes[0] = "TID"
	rec := gen.Generate(NewSource(1).Record(0), 0)
	assert.Equal(t, "DDD", rec.TestType)
}

func TestDeviceID(t *testing.T) {
	assert.Equal(t, "D000000", DeviceID(0))
	assert.Equal(t, "D000007", DeviceID(7))
	assert.Equal(t, "D099999", DeviceID(99999))
	assert.Equal(t, "D1234567", DeviceID(1234567))
}

func TestGenerate_TypeConditionedFields(t *testing.T) {
	gen := newTestGenerator(t)
	src := NewSource(42)
	seen := map[string]int{}

	for i := 0; i < 2000; i++ {
		rec := gen.Generate(src.Record(i), i)
		seen[rec.TestType]++

		switch {
		case rec.TestType == model.TestTypeTID:
			assert.True(t, rec.DoseKrad.Valid(), "TID record %d must carry dose", i)
			assert.Equal(t, model.CellNull, rec.FluenceCm2.State)
		case strings.HasPrefix(rec.TestType, "SEE"):
			assert.True(t, rec.FluenceCm2.Valid(), "SEE record %d must carry fluence", i)
			assert.Equal(t, model.CellNull, rec.DoseKrad.State)
		case rec.TestType == model.TestTypeDDD:
			assert.Equal(t, model.CellNull, rec.DoseKrad.State)
			assert.Equal(t, model.CellNull, rec.FluenceCm2.State)
		default:
			t.Fatalf("unexpected test type %q", rec.TestType)
		}
	}

	for _, tt := range DefaultVocabulary().TestTypes {
		assert.Greater(t, seen[tt], 0, "test type %s never drawn", tt)
	}
}

func TestGenerate_FieldRanges(t *testing.T) {
	gen := newTestGenerator(t)
	src := NewSource(7)
	vocab := DefaultVocabulary()

	for i := 0; i < 1000; i++ {
		rec := gen.Generate(src.Record(i), i)

		_, err := uuid.Parse(rec.TestID)
		assert.NoError(t, err)
		assert.Equal(t, DeviceID(i), rec.DeviceID)

		age := testReference.Sub(rec.Date)
		assert.GreaterOrEqual(t, age, time.Duration(0))
		assert.LessOrEqual(t, age, DefaultLookbackDays*24*time.Hour)
		assert.Zero(t, age%(24*time.Hour), "date offsets are whole days")

		beam, ok := rec.BeamEnergyMeV.Get()
		require.True(t, ok)
		assert.GreaterOrEqual(t, beam, BeamEnergyMinMeV)
		assert.Less(t, beam, BeamEnergyMaxMeV)

		if d, ok := rec.DoseKrad.Get(); ok {
			assert.GreaterOrEqual(t, d, 0.0)
		}
		if f, ok := rec.FluenceCm2.Get(); ok {
			assert.Greater(t, f, 0.0)
		}

		n, ok := rec.ErrorCount.Get()
		require.True(t, ok)
		assert.GreaterOrEqual(t, n, 0)

		assert.Contains(t, vocab.PartNumbers, rec.PartNumber)
		assert.Contains(t, vocab.Manufacturers, rec.Manufacturer)
		assert.Contains(t, vocab.Operators, rec.Operator)
		assert.Contains(t, vocab.TestFixtures, rec.TestFixture)
		assert.Contains(t, append(vocab.Notes, "latchup obseverd"), rec.Notes)

		assert.InDelta(t,
			FailureProbability(rec.DoseKrad, rec.FluenceCm2, n),
			rec.FailureProbability, 1e-12)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := newTestGenerator(t)

	for i := 0; i < 50; i++ {
		a := gen.Generate(NewSource(99).Record(i), i)
		b := gen.Generate(NewSource(99).Record(i), i)
		assert.Equal(t, a, b)
	}

	a := gen.Generate(NewSource(99).Record(3), 3)
	b := gen.Generate(NewSource(100).Record(3), 3)
	assert.NotEqual(t, a.TestID, b.TestID)
}

func TestGenerate_UniqueTestIDs(t *testing.T) {
	gen := newTestGenerator(t)
	src := NewSource(42)
	ids := make(map[string]struct{})

	for i := 0; i < 5000; i++ {
		rec := gen.Generate(src.Record(i), i)
		_, dup := ids[rec.TestID]
		require.False(t, dup, "duplicate test_id at %d", i)
		ids[rec.TestID] = struct{}{}
	}
}

func TestFailureProbability(t *testing.T) {
	tests := []struct {
		name    string
		dose    model.Float
		fluence model.Float
		errors  int
		want    float64
	}{
		{"base rate only", model.Null[float64](), model.Null[float64](), 0, 0.01},
		{"moderate dose", model.Some(10.0), model.Null[float64](), 0, 0.21},
		{"dose capped", model.Some(1000.0), model.Null[float64](), 0, 0.71},
		{"huge dose", model.Some(5e5), model.Null[float64](), 0, 0.01 + 0.7},
		{"moderate fluence", model.Null[float64](), model.Some(2e5), 0, 0.21},
		{"fluence capped", model.Null[float64](), model.Some(1e9), 0, 0.61},
		{"errors only", model.Null[float64](), model.Null[float64](), 3, 0.16},
		{"capped dose plus errors", model.Some(100.0), model.Null[float64](), 2, 0.81},
		{"clamped", model.Null[float64](), model.Some(1e9), 10, 0.95},
		{"missing dose ignored", model.Float{State: model.CellMissing}, model.Null[float64](), 1, 0.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FailureProbability(tt.dose, tt.fluence, tt.errors), 1e-12)
		})
	}
}

func TestFailureProbability_Bounds(t *testing.T) {
	rng := NewSource(2024).Named("failure-bounds")
	extremes := []float64{0, 1e-300, 1, 49.9, 50, 1e6, 1e12, math.MaxFloat64, math.Inf(1)}

	check := func(dose, fluence model.Float, errs int) {
		p := FailureProbability(dose, fluence, errs)
		assert.GreaterOrEqual(t, p, BaseFailureRate)
		assert.LessOrEqual(t, p, MaxFailureRate)
	}

	for _, d := range extremes {
		for _, f := range extremes {
			for _, errs := range []int{0, 1, 5, 1000, math.MaxInt32} {
				check(model.Some(d), model.Null[float64](), errs)
				check(model.Null[float64](), model.Some(f), errs)
				check(model.Some(d), model.Some(f), errs)
			}
		}
	}

	for i := 0; i < 10000; i++ {
		dose := model.Some(Exponential(rng, 1e4))
		fluence := model.Some(LogNormal(rng, 20, 4))
		check(dose, fluence, Poisson(rng, 50))
	}
}

func TestCorruptNote(t *testing.T) {
	// a zero word maps to a uniform draw of 0, all ones to just below 1
	assert.Equal(t, "latchup obseverd", CorruptNote(fixedRand{u: 0}, "latchup observed"))
	assert.Equal(t, "latchup observed", CorruptNote(fixedRand{u: math.MaxUint64}, "latchup observed"))
	assert.Equal(t, "nominal", CorruptNote(fixedRand{u: 0}, "nominal"))
}

func TestCorruptNote_Rate(t *testing.T) {
	rng := NewSource(5).Named("typo-rate")
	corrupted := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if CorruptNote(rng, "latchup observed") != "latchup observed" {
			corrupted++
		}
	}
	assert.InDelta(t, NoteTypoRate, float64(corrupted)/n, 0.01)
}

func TestGenerate_WithFakeRand(t *testing.T) {
	gen := newTestGenerator(t)

	// IntN always 0: first vocabulary entries, TID, zero day offset
	rec := gen.Generate(firstChoice{NewSource(1).Record(12)}, 12)
	assert.Equal(t, "D000012", rec.DeviceID)
	assert.Equal(t, "P100", rec.PartNumber)
	assert.Equal(t, "TID", rec.TestType)
	assert.Equal(t, testReference, rec.Date)
	assert.True(t, rec.DoseKrad.Valid())
	assert.Equal(t, model.CellNull, rec.FluenceCm2.State)
	assert.Equal(t, FailureProbability(rec.DoseKrad, rec.FluenceCm2, rec.ErrorCount.Value), rec.FailureProbability)

	again := gen.Generate(firstChoice{NewSource(1).Record(12)}, 12)
	assert.Equal(t, rec, again)
}

func TestGenerate_DefaultReferenceWindow(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Microsecond)
	gen, err := NewRecordGenerator(DefaultVocabulary())
	require.NoError(t, err)
	after := time.Now().UTC()

	ref := gen.ReferenceTime()
	assert.False(t, ref.Before(before))
	assert.False(t, ref.After(after))

	// no date is more than DefaultLookbackDays before generation time
	earliest := ref.Add(-DefaultLookbackDays * 24 * time.Hour)
	src := NewSource(8)
	for i := 0; i < 5000; i++ {
		rec := gen.Generate(src.Record(i), i)
		require.False(t, rec.Date.After(ref))
		require.False(t, rec.Date.Before(earliest), "date %s older than the lookback window", rec.Date)
	}
}
