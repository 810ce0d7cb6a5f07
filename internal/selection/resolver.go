package selection

import (
	"slices"

	"github.com/vozant-ai/valuation-engine/internal/taxonomy"
)

// ValidSets holds, for each dependent field, the choices consistent with the
// current upstream selections. An empty slice means the control offers nothing;
// it is never an error.
type ValidSets struct {
	Models        []string `json:"models"`
	Years         []int    `json:"years"`
	FuelTypes     []string `json:"fuelTypes"`
	Transmissions []string `json:"transmissions"`
	EngineTypes   []string `json:"engineTypes"`
	Displacements []int    `json:"displacements"`
	Horsepowers   []int    `json:"horsepowers"`
	Torques       []int    `json:"torques"`
}

// Resolve is a single atomic pass from (selection, taxonomy) to (corrected
// selection, valid sets). All valid sets are computed first and the corrected
// selection is derived from them, so a corrected engine type is reflected in
// the displacement set of the same pass, never a stale read.
func Resolve(f Features, snap *taxonomy.Snapshot) (Features, ValidSets) {
	var sets ValidSets
	if snap == nil || f.Brand == "" {
		return f, sets
	}

	sets.Models = snap.ModelsFor(f.Brand)
	if f.Model == "" {
		return f, sets
	}

	sets.Years = snap.YearsFor(f.Brand, f.Model)
	if len(sets.Years) > 0 && !slices.Contains(sets.Years, f.Year) {
		f.Year = sets.Years[0]
	}

	attrs, ok := snap.AttrsFor(f.Brand, f.Model)
	if !ok {
		return f, sets
	}

	sets.FuelTypes = attrs.FuelTypes
	sets.Transmissions = attrs.Transmissions
	sets.EngineTypes = attrs.EngineTypes
	sets.Horsepowers = attrs.Horsepowers
	sets.Torques = attrs.Torques

	f.FuelType = correctString(f.FuelType, attrs.FuelTypes)
	f.Transmission = correctString(f.Transmission, attrs.Transmissions)
	f.EngineType = correctString(f.EngineType, attrs.EngineTypes)

	// The displacement set follows the corrected engine type. An engine type
	// outside the taxonomy forces the model-level fallback list.
	engineForDisplacement := f.EngineType
	if !slices.Contains(attrs.EngineTypes, engineForDisplacement) {
		engineForDisplacement = ""
	}
	sets.Displacements = snap.DisplacementsFor(f.Brand, f.Model, engineForDisplacement)

	f.Displacement = correctInt(f.Displacement, sets.Displacements)
	f.Horsepower = correctInt(f.Horsepower, attrs.Horsepowers)
	f.Torque = correctInt(f.Torque, attrs.Torques)

	return f, sets
}

// correctString resets a held value to the set's first element when the set is
// non-empty and does not contain it. An empty set leaves the value unchanged.
func correctString(held string, valid []string) string {
	if len(valid) == 0 || slices.Contains(valid, held) {
		return held
	}
	return valid[0]
}

func correctInt(held int, valid []int) int {
	if len(valid) == 0 || slices.Contains(valid, held) {
		return held
	}
	return valid[0]
}
