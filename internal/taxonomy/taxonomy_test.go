package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Brands: []string{"Bentley", "Toyota"},
		Models: map[string][]string{
			"Bentley": {"Batur", "Continental GT"},
			"Toyota":  {"Corolla"},
		},
		Years: map[string]map[string][]int{
			"Bentley": {"Batur": {2024, 2023}},
			"Toyota":  {"Corolla": {2022, 2023, 2024}},
		},
		Attrs: map[string]map[string]ModelAttrs{
			"Bentley": {
				"Batur": {
					FuelTypes:     []string{"Gasoline"},
					Transmissions: []string{"A"},
					EngineTypes:   []string{"W12", "V8"},
					Displacements: []int{5950, 3996},
					Horsepowers:   []int{740},
					Torques:       []int{1000},
				},
			},
		},
		DisplacementsByEngine: map[string]map[string]map[string][]int{
			"Bentley": {
				"Batur": {
					"W12": {5950},
					"V8":  {3996},
				},
			},
		},
	}
}

func TestLookupsMissingKeysReturnEmpty(t *testing.T) {
	s := testSnapshot()

	assert.Empty(t, s.ModelsFor("Lada"))
	assert.Empty(t, s.YearsFor("Lada", "Niva"))
	assert.Empty(t, s.YearsFor("Bentley", "Bentayga"))

	_, ok := s.AttrsFor("Lada", "Niva")
	assert.False(t, ok)

	assert.Empty(t, s.DisplacementsFor("Lada", "Niva", "I4"))

	empty := Empty()
	assert.Empty(t, empty.ModelsFor("Bentley"))
	assert.Empty(t, empty.DisplacementsFor("Bentley", "Batur", "W12"))
}

func TestDisplacementsFor(t *testing.T) {
	s := testSnapshot()

	// Per-engine-type refinement wins when present.
	assert.Equal(t, []int{5950}, s.DisplacementsFor("Bentley", "Batur", "W12"))
	assert.Equal(t, []int{3996}, s.DisplacementsFor("Bentley", "Batur", "V8"))

	// Unknown engine type falls back to the model-level list.
	assert.Equal(t, []int{5950, 3996}, s.DisplacementsFor("Bentley", "Batur", "I4"))
	assert.Equal(t, []int{5950, 3996}, s.DisplacementsFor("Bentley", "Batur", ""))
}

func TestValidate(t *testing.T) {
	s := testSnapshot()
	assert.Empty(t, s.Validate())

	// Introduce a displacement that the model-level list does not carry.
	s.DisplacementsByEngine["Bentley"]["Batur"]["V8"] = []int{9999}
	errs := s.Validate()
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "9999")
}
