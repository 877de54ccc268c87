package risk

import (
	"errors"
	"fmt"
)

// SymptomRule gives a symptom tag its weight. Label overrides the label
// derived from the tag.
type SymptomRule struct {
	Tag    string `yaml:"tag" json:"tag"`
	Weight int    `yaml:"weight" json:"weight"`
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
}

// PressureTier matches when systolic is at or above Systolic or diastolic is
// at or above Diastolic. For the low tier both comparisons are "below".
type PressureTier struct {
	Systolic  int    `yaml:"systolic" json:"systolic"`
	Diastolic int    `yaml:"diastolic" json:"diastolic"`
	Weight    int    `yaml:"weight" json:"weight"`
	Label     string `yaml:"label" json:"label"`
}

type BloodPressureBands struct {
	Severe PressureTier `yaml:"severe" json:"severe"`
	High   PressureTier `yaml:"high" json:"high"`
	Low    PressureTier `yaml:"low" json:"low"`
}

// HeartRateBand matches when the rate is above Max or below Min.
type HeartRateBand struct {
	Min    int    `yaml:"min" json:"min"`
	Max    int    `yaml:"max" json:"max"`
	Weight int    `yaml:"weight" json:"weight"`
	Label  string `yaml:"label" json:"label"`
}

type TemperatureTier struct {
	AtLeast float64 `yaml:"at_least" json:"at_least"`
	Weight  int     `yaml:"weight" json:"weight"`
	Label   string  `yaml:"label" json:"label"`
}

type TemperatureBands struct {
	High TemperatureTier `yaml:"high" json:"high"`
	Mild TemperatureTier `yaml:"mild" json:"mild"`
}

type OxygenTier struct {
	Below  int    `yaml:"below" json:"below"`
	Weight int    `yaml:"weight" json:"weight"`
	Label  string `yaml:"label" json:"label"`
}

type OxygenBands struct {
	Critical OxygenTier `yaml:"critical" json:"critical"`
	Low      OxygenTier `yaml:"low" json:"low"`
}

// Rules is the scoring table used by the Classifier. A tier or symptom with
// a zero weight is disabled.
type Rules struct {
	Symptoms      []SymptomRule      `yaml:"symptoms" json:"symptoms"`
	BloodPressure BloodPressureBands `yaml:"blood_pressure" json:"blood_pressure"`
	HeartRate     HeartRateBand      `yaml:"heart_rate" json:"heart_rate"`
	Temperature   TemperatureBands   `yaml:"temperature" json:"temperature"`
	SpO2          OxygenBands        `yaml:"spo2" json:"spo2"`
	Levels        Breakpoints        `yaml:"levels" json:"levels"`
}

// DefaultRules returns the clinical scoring table.
func DefaultRules() Rules {
	return Rules{
		Symptoms: []SymptomRule{
			{Tag: "severe_headache", Weight: 15},
			{Tag: "blurred_vision", Weight: 15},
			{Tag: "convulsions", Weight: 25},
			{Tag: "severe_abdominal_pain", Weight: 20},
			{Tag: "vaginal_bleeding", Weight: 25},
			{Tag: "fever", Weight: 10},
			{Tag: "reduced_fetal_movement", Weight: 20},
			{Tag: "swelling_face_hands", Weight: 10},
			{Tag: "difficulty_breathing", Weight: 20},
			{Tag: "chest_pain", Weight: 15},
			{Tag: "severe_vomiting", Weight: 10},
			{Tag: "water_breaking_early", Weight: 25},
		},
		BloodPressure: BloodPressureBands{
			Severe: PressureTier{Systolic: 160, Diastolic: 110, Weight: 25, Label: "Severe Hypertension"},
			High:   PressureTier{Systolic: 140, Diastolic: 90, Weight: 15, Label: "Hypertension"},
			Low:    PressureTier{Systolic: 90, Diastolic: 60, Weight: 15, Label: "Low Blood Pressure"},
		},
		HeartRate: HeartRateBand{Min: 60, Max: 120, Weight: 10, Label: "Abnormal Heart Rate"},
		Temperature: TemperatureBands{
			High: TemperatureTier{AtLeast: 38.5, Weight: 15, Label: "High Fever"},
			Mild: TemperatureTier{AtLeast: 37.5, Weight: 5, Label: "Mild Fever"},
		},
		SpO2: OxygenBands{
			Critical: OxygenTier{Below: 90, Weight: 25, Label: "Critical Oxygen Level"},
			Low:      OxygenTier{Below: 95, Weight: 10, Label: "Low Oxygen Level"},
		},
		Levels: Breakpoints{Emergency: 50, HighRisk: 30, Caution: 15},
	}
}

// Validate checks that the table is internally consistent.
func (r Rules) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(r.Symptoms))
	for i, s := range r.Symptoms {
		switch {
		case s.Tag == "":
			errs = append(errs, fmt.Errorf("symptoms[%d]: tag is required", i))
		case seen[s.Tag]:
			errs = append(errs, fmt.Errorf("symptoms[%d]: duplicate tag %q", i, s.Tag))
		}
		if s.Weight < 0 {
			errs = append(errs, fmt.Errorf("symptoms[%d]: weight must not be negative", i))
		}
		seen[s.Tag] = true
	}

	bp := r.BloodPressure
	if bp.Severe.Systolic < bp.High.Systolic || bp.Severe.Diastolic < bp.High.Diastolic {
		errs = append(errs, errors.New("blood_pressure: severe tier must not be below high tier"))
	}
	if bp.Low.Systolic > bp.High.Systolic || bp.Low.Diastolic > bp.High.Diastolic {
		errs = append(errs, errors.New("blood_pressure: low tier must not be above high tier"))
	}
	if r.HeartRate.Min >= r.HeartRate.Max {
		errs = append(errs, errors.New("heart_rate: min must be below max"))
	}
	if r.Temperature.High.AtLeast < r.Temperature.Mild.AtLeast {
		errs = append(errs, errors.New("temperature: high tier must not be below mild tier"))
	}
	if r.SpO2.Critical.Below > r.SpO2.Low.Below {
		errs = append(errs, errors.New("spo2: critical tier must not be above low tier"))
	}

	for _, w := range []int{
		bp.Severe.Weight, bp.High.Weight, bp.Low.Weight, r.HeartRate.Weight,
		r.Temperature.High.Weight, r.Temperature.Mild.Weight,
		r.SpO2.Critical.Weight, r.SpO2.Low.Weight,
	} {
		if w < 0 {
			errs = append(errs, errors.New("vital weights must not be negative"))
			break
		}
	}

	lv := r.Levels
	if lv.Caution <= 0 || lv.HighRisk <= lv.Caution || lv.Emergency <= lv.HighRisk {
		errs = append(errs, fmt.Errorf("levels: breakpoints must be strictly increasing and positive (caution=%d high_risk=%d emergency=%d)",
			lv.Caution, lv.HighRisk, lv.Emergency))
	}
	return errors.Join(errs...)
}

func (r Rules) clone() Rules {
	out := r
	out.Symptoms = append([]SymptomRule(nil), r.Symptoms...)
	return out
}
