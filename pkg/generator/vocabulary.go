// pkg/generator/vocabulary.go
package generator

import (
	"errors"
	"fmt"
)

// ErrEmptyVocabulary is returned when a categorical vocabulary has no entries
var ErrEmptyVocabulary = errors.New("vocabulary is empty")

// Vocabulary holds the fixed categorical value lists records are drawn from
type Vocabulary struct {
	PartNumbers   []string
	Manufacturers []string
	TestTypes     []string
	Operators     []string
	TestFixtures  []string
	Notes         []string
}

// DefaultVocabulary returns the standard categorical lists
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		PartNumbers:   []string{"P100", "P200", "P300", "P400", "P500"},
		Manufacturers: []string{"ACME", "NOVA", "SKY", "LUMO", "ORION"},
		TestTypes:     []string{"TID", "SEE_HEAVY_ION", "SEE_PROTON", "DDD"},
		Operators:     []string{"Alice", "Bob", "Charlie", "David", "Eve"},
		TestFixtures:  []string{"FIX1", "FIX2", "FIX3"},
		Notes:         []string{"latchup observed", "burnout detected", "nominal", "minor glitch"},
	}
}

// Validate ensures every list has at least one entry
func (v Vocabulary) Validate() error {
	lists := []struct {
		name   string
		values []string
	}{
		{"part numbers", v.PartNumbers},
		{"manufacturers", v.Manufacturers},
		{"test types", v.TestTypes},
		{"operators", v.Operators},
		{"test fixtures", v.TestFixtures},
		{"notes", v.Notes},
	}

	for _, l := range lists {
		if len(l.values) == 0 {
			return fmt.Errorf("%s: %w", l.name, ErrEmptyVocabulary)
		}
	}
	return nil
}

// clone copies the lists so later edits by the caller don't leak in
func (v Vocabulary) clone() Vocabulary {
	return Vocabulary{
		PartNumbers:   append([]string(nil), v.PartNumbers...),
		Manufacturers: append([]string(nil), v.Manufacturers...),
		TestTypes:     append([]string(nil), v.TestTypes...),
		Operators:     append([]string(nil), v.Operators...),
		TestFixtures:  append([]string(nil), v.TestFixtures...),
		Notes:         append([]string(nil), v.Notes...),
	}
}
