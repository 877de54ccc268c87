package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldIssue describes an input field that was present but could not be used.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (f FieldIssue) String() string {
	return f.Field + ": " + f.Reason
}

// vitalField names the request keys accepted for one vital, first match
// wins, and the largest value that is still a plausible reading.
type vitalField struct {
	keys []string
	max  float64
}

var (
	systolicField    = vitalField{keys: []string{"systolic", "bp_systolic", "blood_pressure_systolic"}, max: 300}
	diastolicField   = vitalField{keys: []string{"diastolic", "bp_diastolic", "blood_pressure_diastolic"}, max: 250}
	heartRateField   = vitalField{keys: []string{"heart_rate", "pulse"}, max: 300}
	temperatureField = vitalField{keys: []string{"temperature_celsius", "temperature"}, max: 50}
	spo2Field        = vitalField{keys: []string{"spo2", "oxygen_saturation"}, max: 100}
)

// ParseVitals extracts vitals from a decoded JSON object. Missing, null and
// empty-string fields are absent. Fields that are present but not a positive
// number within the field's range are also treated as absent and reported
// as issues. Values are kept exactly as given.
func ParseVitals(raw map[string]any) (Vitals, []FieldIssue) {
	var (
		v      Vitals
		issues []FieldIssue
	)
	field := func(f vitalField) Reading {
		key, val, ok := lookup(raw, f.keys)
		if !ok {
			return Reading{}
		}
		n, err := toNumber(val)
		if err == nil && n > f.max {
			err = fmt.Errorf("out of range (max %s)", strconv.FormatFloat(f.max, 'f', -1, 64))
		}
		if err != nil {
			issues = append(issues, FieldIssue{Field: key, Reason: err.Error()})
			return Reading{}
		}
		return Some(n)
	}
	v.Systolic = field(systolicField)
	v.Diastolic = field(diastolicField)
	v.HeartRate = field(heartRateField)
	v.Temperature = field(temperatureField)
	v.SpO2 = field(spo2Field)
	return v, issues
}

// ParseSymptoms accepts a JSON array of strings or a comma-separated string.
// Non-string array elements are reported and skipped.
func ParseSymptoms(raw any) (SymptomSet, []FieldIssue) {
	var issues []FieldIssue
	switch s := raw.(type) {
	case nil:
		return NewSymptomSet(), nil
	case string:
		return NewSymptomSet(strings.Split(s, ",")...), nil
	case []string:
		return NewSymptomSet(s...), nil
	case []any:
		tags := make([]string, 0, len(s))
		for i, item := range s {
			tag, ok := item.(string)
			if !ok {
				issues = append(issues, FieldIssue{Field: fmt.Sprintf("symptoms[%d]", i), Reason: "must be a string"})
				continue
			}
			tags = append(tags, tag)
		}
		return NewSymptomSet(tags...), issues
	default:
		return NewSymptomSet(), []FieldIssue{{Field: "symptoms", Reason: "must be a list of strings"}}
	}
}

func lookup(raw map[string]any, keys []string) (string, any, bool) {
	for _, k := range keys {
		val, ok := raw[k]
		if !ok || val == nil {
			continue
		}
		if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return k, val, true
	}
	return "", nil, false
}

var (
	errNotNumber   = errors.New("not a number")
	errNotPositive = errors.New("must be positive")
)

func toNumber(val any) (float64, error) {
	var f float64
	switch n := val.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, errNotNumber
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errNotNumber
		}
		f = parsed
	default:
		return 0, errNotNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumber
	}
	if f <= 0 {
		return 0, errNotPositive
	}
	return f, nil
}
