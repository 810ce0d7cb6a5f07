package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vozant-ai/valuation-engine/internal/taxonomy"
)

func testSnapshot() *taxonomy.Snapshot {
	return &taxonomy.Snapshot{
		Brands: []string{"Bentley", "Toyota", "Ghost"},
		Models: map[string][]string{
			"Bentley": {"Batur", "Continental GT"},
			"Toyota":  {"Corolla"},
		},
		Years: map[string]map[string][]int{
			"Bentley": {"Batur": {2024, 2023}},
			"Toyota":  {"Corolla": {2022, 2023, 2024}},
		},
		Attrs: map[string]map[string]taxonomy.ModelAttrs{
			"Bentley": {
				"Batur": {
					FuelTypes:     []string{"Gasoline"},
					Transmissions: []string{"A"},
					EngineTypes:   []string{"W12", "V8"},
					Displacements: []int{5950, 3996},
					Horsepowers:   []int{740, 550},
					Torques:       []int{1000, 770},
				},
			},
			"Toyota": {
				"Corolla": {
					FuelTypes:     []string{"Gasoline", "Hybrid"},
					Transmissions: []string{"A", "M"},
					EngineTypes:   []string{"I4"},
					Displacements: []int{1600, 1800},
					Horsepowers:   []int{132, 169},
					Torques:       []int{160, 200},
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

func TestResolveUnknownBrandYieldsEmptySets(t *testing.T) {
	snap := testSnapshot()

	f := Default(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).WithBrand("Ghost")
	f, sets := Resolve(f, snap)

	assert.Empty(t, sets.Models)
	assert.Empty(t, sets.Years)
	assert.Equal(t, "", f.Model)
	assert.Equal(t, 0, f.Year)
}

func TestResolveEmptyBrandCollapsesEverything(t *testing.T) {
	snap := testSnapshot()

	f := Default(time.Now()).WithBrand("")
	f, sets := Resolve(f, snap)

	assert.Equal(t, ValidSets{}, sets)
	assert.Equal(t, "", f.Brand)
}

func TestResolveBrandOnlyExposesModels(t *testing.T) {
	snap := testSnapshot()

	f := Default(time.Now()).WithBrand("Bentley")
	f, sets := Resolve(f, snap)

	assert.Equal(t, []string{"Batur", "Continental GT"}, sets.Models)
	assert.Empty(t, sets.Years)
	assert.Empty(t, sets.EngineTypes)
	assert.Equal(t, 0, f.Year)
}

func TestResolveModelResetsInvalidYearToFirst(t *testing.T) {
	snap := testSnapshot()

	f := Default(time.Now()).WithBrand("Bentley").WithModel("Batur")
	f, sets := Resolve(f, snap)

	// Server order is authoritative: 2024 first even though 2023 < 2024.
	assert.Equal(t, []int{2024, 2023}, sets.Years)
	assert.Equal(t, 2024, f.Year)
}

func TestResolveKeepsValidYear(t *testing.T) {
	snap := testSnapshot()

	f := Default(time.Now()).WithBrand("Bentley").WithModel("Batur").WithYear(2023)
	f, _ = Resolve(f, snap)

	assert.Equal(t, 2023, f.Year)
}

func TestResolveAutoCorrectsAttributesAtomically(t *testing.T) {
	snap := testSnapshot()

	// Defaults hold I4/2000cc, invalid for a Batur. Engine-type correction must
	// drive the displacement set in the same pass.
	f := Default(time.Now()).WithBrand("Bentley").WithModel("Batur")
	f, sets := Resolve(f, snap)

	assert.Equal(t, "Gasoline", f.FuelType)
	assert.Equal(t, "A", f.Transmission)
	assert.Equal(t, "W12", f.EngineType)
	assert.Equal(t, []int{5950}, sets.Displacements)
	assert.Equal(t, 5950, f.Displacement)
	assert.Equal(t, 740, f.Horsepower)
	assert.Equal(t, 1000, f.Torque)
}

func TestResolveEngineTypeChangeRecomputesDisplacements(t *testing.T) {
	snap := testSnapshot()

	f := Default(time.Now()).WithBrand("Bentley").WithModel("Batur")
	f, _ = Resolve(f, snap)

	// Per-engine-type branch.
	f, sets := Resolve(f.WithEngineType("V8"), snap)
	assert.Equal(t, []int{3996}, sets.Displacements)
	assert.Equal(t, 3996, f.Displacement)

	// Model-level fallback branch: Corolla has no per-engine-type refinement.
	g := Default(time.Now()).WithBrand("Toyota").WithModel("Corolla")
	g, gsets := Resolve(g, snap)
	assert.Equal(t, []int{1600, 1800}, gsets.Displacements)
	assert.Equal(t, 1600, g.Displacement)
}

func TestResolveEmptyValidSetLeavesSelectionUnchanged(t *testing.T) {
	snap := testSnapshot()
	snap.Attrs["Toyota"]["Corolla"] = taxonomy.ModelAttrs{
		EngineTypes: []string{"I4"},
	}

	f := Default(time.Now()).WithBrand("Toyota").WithModel("Corolla")
	f, sets := Resolve(f, snap)

	// Fuel, transmission, displacement, horsepower and torque sets are empty, so
	// the held values survive.
	assert.Empty(t, sets.FuelTypes)
	assert.Equal(t, "Gasoline", f.FuelType)
	assert.Equal(t, "A", f.Transmission)
	assert.Equal(t, 2000, f.Displacement)
	assert.Equal(t, 200, f.Horsepower)
	assert.Equal(t, 300, f.Torque)
	// Engine type still corrects against its non-empty set.
	assert.Equal(t, "I4", f.EngineType)
}

func TestResolveNilSnapshot(t *testing.T) {
	f := Default(time.Now()).WithBrand("Bentley")
	f, sets := Resolve(f, nil)
	assert.Equal(t, ValidSets{}, sets)
	assert.Equal(t, "Bentley", f.Brand)
}
