package generator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_RecordStreamsAreReproducible(t *testing.T) {
	a := NewSource(42).Record(10)
	b := NewSource(42).Record(10)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestSource_StreamsAreIndependent(t *testing.T) {
	src := NewSource(42)
	assert.NotEqual(t, src.Record(1).Uint64(), src.Record(2).Uint64())
	assert.NotEqual(t, src.Named("voltage_V").Uint64(), src.Named("temp_C").Uint64())
	assert.NotEqual(t, src.Record(0).Uint64(), NewSource(43).Record(0).Uint64())
	assert.Equal(t, uint64(42), src.Seed())
}

func TestStream_Read(t *testing.T) {
	a := make([]byte, 16)
	b := make([]byte, 16)

	n, err := NewSource(1).Named("bytes").Read(a)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	_, err = NewSource(1).Named("bytes").Read(b)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDistributions_Moments(t *testing.T) {
	rng := NewSource(11).Named("moments")
	const n = 50000

	var sumNormal, sumExp, sumPoisson, sumUniform, sumLogNormal, successes float64
	for i := 0; i < n; i++ {
		sumNormal += Normal(rng, VoltageMean, VoltageStddev)
		sumExp += Exponential(rng, DoseScale)
		sumPoisson += float64(Poisson(rng, ErrorCountMean))
		sumUniform += Uniform(rng, BeamEnergyMinMeV, BeamEnergyMaxMeV)
		sumLogNormal += LogNormal(rng, 0, 0.5)
		if Bernoulli(rng, 0.3) {
			successes++
		}
	}

	assert.InDelta(t, VoltageMean, sumNormal/n, 0.01)
	assert.InDelta(t, DoseScale, sumExp/n, 0.5)
	assert.InDelta(t, ErrorCountMean, sumPoisson/n, 0.03)
	assert.InDelta(t, (BeamEnergyMinMeV+BeamEnergyMaxMeV)/2, sumUniform/n, 1)
	assert.InDelta(t, math.Exp(0.125), sumLogNormal/n, 0.02)
	assert.InDelta(t, 0.3, successes/n, 0.01)
}

func TestDistributions_ReproducibleFromStream(t *testing.T) {
	draw := func() []float64 {
		rng := NewSource(9).Record(4)
		return []float64{
			Uniform(rng, 0, 1),
			Normal(rng, 0, 1),
			Exponential(rng, 2),
			LogNormal(rng, 1, 0.3),
			float64(Poisson(rng, 3)),
			float64(Poisson(rng, 40)),
		}
	}
	assert.Equal(t, draw(), draw())
}

func TestUniform_StaysInRange(t *testing.T) {
	rng := NewSource(2).Named("uniform")
	for i := 0; i < 10000; i++ {
		v := Uniform(rng, BeamEnergyMinMeV, BeamEnergyMaxMeV)
		require.GreaterOrEqual(t, v, BeamEnergyMinMeV)
		require.Less(t, v, BeamEnergyMaxMeV)
	}
}

func TestPoisson_NonPositiveMean(t *testing.T) {
	rng := NewSource(1).Named("poisson")
	assert.Equal(t, 0, Poisson(rng, 0))
	assert.Equal(t, 0, Poisson(rng, -1))
}

func TestChoice(t *testing.T) {
	rng := NewSource(3).Named("choice")
	counts := map[string]int{}
	items := []string{"a", "b", "c"}
	for i := 0; i < 3000; i++ {
		counts[Choice(rng, items)]++
	}
	for _, item := range items {
		assert.InDelta(t, 1000, counts[item], 150)
	}
}
