// pkg/generator/generator.go
package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// Distribution parameters
const (
	DefaultLookbackDays = 730

	BeamEnergyMinMeV = 1.0
	BeamEnergyMaxMeV = 150.0
	DoseScale        = 15.0
	FluenceLogMean   = 12.0
	FluenceLogSigma  = 1.2
	VoltageMean      = 3.3
	VoltageStddev    = 0.15
	CurrentMean      = 10.0
	CurrentStddev    = 1.5
	ErrorCountMean   = 0.5
	TempMean         = 25.0
	TempStddev       = 10.0

	NoteTypoRate     = 0.05
	NoteTypoTarget   = "observed"
	NoteTypoMisspelt = "obseverd"

	deviceIDFormat = "D%06d"
)

// RecordGenerator produces one test record per index
type RecordGenerator struct {
	vocab         Vocabulary
	referenceTime time.Time
	lookbackDays  int
}

// Option configures a RecordGenerator
type Option func(*RecordGenerator)

// WithReferenceTime sets the time test dates are counted back from
func WithReferenceTime(t time.Time) Option {
	return func(g *RecordGenerator) {
		g.referenceTime = t
	}
}

// WithLookbackDays sets the maximum day offset before the reference time
func WithLookbackDays(days int) Option {
	return func(g *RecordGenerator) {
		g.lookbackDays = days
	}
}

// NewRecordGenerator creates a generator over a vocabulary.
// Without WithReferenceTime, dates count back from the moment of construction.
func NewRecordGenerator(vocab Vocabulary, opts ...Option) (*RecordGenerator, error) {
	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary: %w", err)
	}

	g := &RecordGenerator{
		vocab:         vocab.clone(),
		referenceTime: Now(),
		lookbackDays:  DefaultLookbackDays,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.lookbackDays < 0 {
		return nil, fmt.Errorf("lookback days cannot be negative: %d", g.lookbackDays)
	}
	return g, nil
}

// Now is the default reference time: the current UTC instant at the
// microsecond precision the sinks store
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ReferenceTime returns the time test dates are counted back from
func (g *RecordGenerator) ReferenceTime() time.Time {
	return g.referenceTime
}

// Generate draws one record from rng. The index only determines device_id.
// Fields are drawn in a fixed order so a given stream always yields the same record.
func (g *RecordGenerator) Generate(rng Rand, index int) model.TestRecord {
	rec := model.TestRecord{
		DeviceID:     DeviceID(index),
		PartNumber:   Choice(rng, g.vocab.PartNumbers),
		Manufacturer: Choice(rng, g.vocab.Manufacturers),
		TestType:     Choice(rng, g.vocab.TestTypes),
		Operator:     Choice(rng, g.vocab.Operators),
		TestFixture:  Choice(rng, g.vocab.TestFixtures),
	}

	offset := rng.IntN(g.lookbackDays + 1)
	rec.Date = g.referenceTime.Add(-time.Duration(offset) * 24 * time.Hour)

	rec.BeamEnergyMeV = model.Some(Uniform(rng, BeamEnergyMinMeV, BeamEnergyMaxMeV))

	rec.DoseKrad = model.Null[float64]()
	rec.FluenceCm2 = model.Null[float64]()
	if rec.IsTID() {
		rec.DoseKrad = model.Some(Exponential(rng, DoseScale))
	}
	if rec.IsSEE() {
		rec.FluenceCm2 = model.Some(LogNormal(rng, FluenceLogMean, FluenceLogSigma))
	}

	rec.VoltageV = model.Some(Normal(rng, VoltageMean, VoltageStddev))
	rec.CurrentMA = model.Some(Normal(rng, CurrentMean, CurrentStddev))

	errorCount := Poisson(rng, ErrorCountMean)
	rec.ErrorCount = model.Some(errorCount)

	rec.FailureProbability = FailureProbability(rec.DoseKrad, rec.FluenceCm2, errorCount)
	rec.Failure = Bernoulli(rng, rec.FailureProbability)

	rec.Notes = CorruptNote(rng, Choice(rng, g.vocab.Notes))
	rec.TempC = model.Some(Normal(rng, TempMean, TempStddev))

	// ChaCha8 reads never fail
	rec.TestID = uuid.Must(uuid.NewRandomFromReader(rng)).String()

	return rec
}

// CorruptNote applies the transcription typo with probability NoteTypoRate.
// The draw happens even for notes without the target substring.
func CorruptNote(rng Rand, note string) string {
	if Bernoulli(rng, NoteTypoRate) {
		return strings.ReplaceAll(note, NoteTypoTarget, NoteTypoMisspelt)
	}
	return note
}

// DeviceID formats the device identifier for a record index
func DeviceID(index int) string {
	return fmt.Sprintf(deviceIDFormat, index)
}
