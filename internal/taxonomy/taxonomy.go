// Package taxonomy models the catalog of valid vehicle configurations served by
// the options endpoint: brands, their models, model years and attribute sets.
package taxonomy

import "fmt"

// ModelAttrs holds the valid attribute values for a single (brand, model) pair.
type ModelAttrs struct {
	FuelTypes     []string `json:"fuel_type"`
	Transmissions []string `json:"transmission"`
	EngineTypes   []string `json:"engine_type"`
	Displacements []int    `json:"engine_displacement"`
	Horsepowers   []int    `json:"horsepower"`
	Torques       []int    `json:"torque"`
}

// Snapshot is an immutable-per-session view of the taxonomy. All lookup methods
// return empty slices when a key is absent; callers never see a nil-vs-missing
// distinction.
type Snapshot struct {
	Brands []string                         `json:"brands"`
	Models map[string][]string              `json:"models"`
	Years  map[string]map[string][]int      `json:"years"`
	Attrs  map[string]map[string]ModelAttrs `json:"attrs"`

	// DisplacementsByEngine refines Attrs.Displacements per engine type.
	DisplacementsByEngine map[string]map[string]map[string][]int `json:"engine_displacement_map,omitempty"`
}

// Empty returns a snapshot with no entries. Used when the options fetch fails so
// dependent choice sets collapse to empty rather than erroring.
func Empty() *Snapshot {
	return &Snapshot{}
}

// ModelsFor returns the valid models for a brand.
func (s *Snapshot) ModelsFor(brand string) []string {
	return s.Models[brand]
}

// YearsFor returns the valid years for a (brand, model) pair. The server's
// ordering is authoritative and not necessarily chronological.
func (s *Snapshot) YearsFor(brand, model string) []int {
	return s.Years[brand][model]
}

// AttrsFor returns the attribute sets for a (brand, model) pair and whether the
// pair exists in the taxonomy.
func (s *Snapshot) AttrsFor(brand, model string) (ModelAttrs, bool) {
	attrs, ok := s.Attrs[brand][model]
	return attrs, ok
}

// DisplacementsFor returns the valid displacements for a (brand, model, engine
// type) triple, falling back to the model-level displacement list when no
// per-engine-type refinement exists.
func (s *Snapshot) DisplacementsFor(brand, model, engineType string) []int {
	if engineType != "" {
		if ds := s.DisplacementsByEngine[brand][model][engineType]; len(ds) > 0 {
			return ds
		}
	}
	attrs, ok := s.AttrsFor(brand, model)
	if !ok {
		return nil
	}
	return attrs.Displacements
}

// Validate checks the refinement invariant: every displacement listed under an
// engine type must also appear in that model's general displacement list, when
// the general list is non-empty. Violations are returned, not fatal; the server
// data is still used as-is.
func (s *Snapshot) Validate() []error {
	var errs []error
	for brand, models := range s.DisplacementsByEngine {
		for model, byEngine := range models {
			attrs, ok := s.AttrsFor(brand, model)
			if !ok || len(attrs.Displacements) == 0 {
				continue
			}
			general := make(map[int]struct{}, len(attrs.Displacements))
			for _, d := range attrs.Displacements {
				general[d] = struct{}{}
			}
			for engineType, ds := range byEngine {
				for _, d := range ds {
					if _, ok := general[d]; !ok {
						errs = append(errs, fmt.Errorf("displacement %d for %s %s engine %s not in model-level list", d, brand, model, engineType))
					}
				}
			}
		}
	}
	return errs
}
