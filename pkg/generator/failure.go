// pkg/generator/failure.go
package generator

import (
	"math"

	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// Failure model constants
const (
	BaseFailureRate     = 0.01
	DoseScaleKrad       = 50.0
	MaxDoseContribution = 0.7
	FluenceScale        = 1e6
	MaxFluenceContrib   = 0.6
	PerErrorIncrement   = 0.05
	MaxFailureRate      = 0.95
)

// FailureProbability combines a record's risk factors into the probability of
// failure. The dose and fluence terms are capped individually, then summed
// with the error term, then the total is clamped to MaxFailureRate.
// Negative dose, fluence or error inputs are not expected and not guarded.
func FailureProbability(dose, fluence model.Float, errorCount int) float64 {
	p := BaseFailureRate

	if d, ok := dose.Get(); ok {
		p += math.Min(d/DoseScaleKrad, MaxDoseContribution)
	}
	if f, ok := fluence.Get(); ok {
		p += math.Min(f/FluenceScale, MaxFluenceContrib)
	}
	p += float64(errorCount) * PerErrorIncrement

	return math.Min(p, MaxFailureRate)
}
