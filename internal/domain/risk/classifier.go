package risk

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Assessment is the outcome of scoring one triage observation.
type Assessment struct {
	Score   int      `json:"score"`
	Level   Level    `json:"level"`
	Factors []string `json:"factors"`
}

// Classifier scores symptoms and vitals against an immutable Rules table.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules  Rules
	labels []string
}

// NewClassifier validates rules and returns a classifier that owns a copy.
func NewClassifier(rules Rules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk rules: %w", err)
	}
	rules = rules.clone()
	labels := make([]string, len(rules.Symptoms))
	for i, s := range rules.Symptoms {
		labels[i] = s.Label
		if labels[i] == "" {
			labels[i] = HumanizeTag(s.Tag)
		}
	}
	return &Classifier{rules: rules, labels: labels}, nil
}

// HumanizeTag turns "severe_headache" into "Severe Headache".
func HumanizeTag(tag string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(tag, "_", " "))
}

// Rules returns a copy of the table the classifier was built with.
func (c *Classifier) Rules() Rules {
	return c.rules.clone()
}

// Level maps a score to a level using the configured breakpoints.
func (c *Classifier) Level(score int) Level {
	return c.rules.Levels.Level(score)
}

// Assess scores an observation. Unknown symptom tags and absent readings
// contribute nothing. Factors are listed in rule order: symptoms first,
// then blood pressure, heart rate, temperature and SpO2.
func (c *Classifier) Assess(symptoms SymptomSet, vitals Vitals) Assessment {
	a := Assessment{Factors: make([]string, 0, 4)}
	add := func(weight int, label string) {
		if weight <= 0 {
			return
		}
		a.Score += weight
		a.Factors = append(a.Factors, label)
	}

	for i, s := range c.rules.Symptoms {
		if symptoms.Has(s.Tag) {
			add(s.Weight, c.labels[i])
		}
	}

	if sys, ok := vitals.Systolic.Get(); ok {
		dia, hasDia := vitals.Diastolic.Get()
		bp := c.rules.BloodPressure
		switch {
		case sys >= float64(bp.Severe.Systolic) || (hasDia && dia >= float64(bp.Severe.Diastolic)):
			add(bp.Severe.Weight, bp.Severe.Label)
		case sys >= float64(bp.High.Systolic) || (hasDia && dia >= float64(bp.High.Diastolic)):
			add(bp.High.Weight, bp.High.Label)
		case sys < float64(bp.Low.Systolic) || (hasDia && dia < float64(bp.Low.Diastolic)):
			add(bp.Low.Weight, bp.Low.Label)
		}
	}

	if hr, ok := vitals.HeartRate.Get(); ok {
		band := c.rules.HeartRate
		if hr > float64(band.Max) || hr < float64(band.Min) {
			add(band.Weight, band.Label)
		}
	}

	if t, ok := vitals.Temperature.Get(); ok {
		temp := c.rules.Temperature
		switch {
		case t >= temp.High.AtLeast:
			add(temp.High.Weight, temp.High.Label)
		case t >= temp.Mild.AtLeast:
			add(temp.Mild.Weight, temp.Mild.Label)
		}
	}

	if o2, ok := vitals.SpO2.Get(); ok {
		ox := c.rules.SpO2
		switch {
		case o2 < float64(ox.Critical.Below):
			add(ox.Critical.Weight, ox.Critical.Label)
		case o2 < float64(ox.Low.Below):
			add(ox.Low.Weight, ox.Low.Label)
		}
	}

	a.Level = c.rules.Levels.Level(a.Score)
	return a
}
