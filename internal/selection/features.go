// Package selection maintains the in-progress vehicle feature selection and
// keeps its dependent fields consistent with the taxonomy.
package selection

import "time"

// Features is the user's current choice of vehicle attributes. JSON tags match
// the upstream predict endpoint's request contract.
type Features struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Mileage      int    `json:"mileage"`
	FuelType     string `json:"fuelType"`
	Transmission string `json:"transmission"`
	EngineType   string `json:"engineType"`
	Displacement int    `json:"engineDisplacement"`
	Horsepower   int    `json:"horsepower"`
	Torque       int    `json:"torque"`
	IsNew        bool   `json:"isNew"`
}

// Default returns the initial selection: current year, zero mileage, new
// condition, and commonplace attribute values pending taxonomy correction.
func Default(now time.Time) Features {
	return Features{
		Year:         now.Year(),
		Mileage:      0,
		FuelType:     "Gasoline",
		Transmission: "A",
		EngineType:   "I4",
		Displacement: 2000,
		Horsepower:   200,
		Torque:       300,
		IsNew:        true,
	}
}

// Complete reports whether brand, model and year are all set. Submission
// requires a complete selection.
func (f Features) Complete() bool {
	return f.Brand != "" && f.Model != "" && f.Year != 0
}

// WithBrand selects a brand, clearing the model and year.
func (f Features) WithBrand(brand string) Features {
	f.Brand = brand
	f.Model = ""
	f.Year = 0
	return f
}

// WithModel selects a model, clearing the year.
func (f Features) WithModel(model string) Features {
	f.Model = model
	f.Year = 0
	return f
}

// WithYear selects a year.
func (f Features) WithYear(year int) Features {
	f.Year = year
	return f
}

// WithEngineType selects an engine type. Displacement consistency is restored
// by the next Resolve pass.
func (f Features) WithEngineType(engineType string) Features {
	f.EngineType = engineType
	return f
}

// MileageRule bounds the mileage field. The minimum depends on condition: zero
// for a new vehicle, UsedMin for a used one.
type MileageRule struct {
	UsedMin int
	Max     int
}

// DefaultMileageRule returns the standard bounds.
func DefaultMileageRule() MileageRule {
	return MileageRule{UsedMin: 5000, Max: 350000}
}

// Min returns the lower mileage bound for the given condition.
func (r MileageRule) Min(isNew bool) int {
	if isNew {
		return 0
	}
	return r.UsedMin
}

// Clamp forces a mileage value into the closed range for the given condition.
// Out-of-range input is clamped, not rejected.
func (r MileageRule) Clamp(mileage int, isNew bool) int {
	if min := r.Min(isNew); mileage < min {
		return min
	}
	if mileage > r.Max {
		return r.Max
	}
	return mileage
}

// WithMileage sets the mileage, clamped per the rule.
func (f Features) WithMileage(mileage int, rule MileageRule) Features {
	f.Mileage = rule.Clamp(mileage, f.IsNew)
	return f
}

// WithCondition toggles new/used. New forces mileage to zero; used raises it to
// at least the used minimum, preserving a larger current value.
func (f Features) WithCondition(isNew bool, rule MileageRule) Features {
	f.IsNew = isNew
	if isNew {
		f.Mileage = 0
	} else {
		f.Mileage = rule.Clamp(f.Mileage, false)
	}
	return f
}
