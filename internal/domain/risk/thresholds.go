package risk

import (
	"errors"
	"fmt"
	"strings"
)

// ReadingPlaceholder is replaced with the literal reading in alert messages.
const ReadingPlaceholder = "{{reading}}"

// Alert is a message raised when a vital sign crosses an alerting threshold.
type Alert struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
}

// AlertTemplate describes the alert raised by a threshold.
type AlertTemplate struct {
	Title    string   `yaml:"title" json:"title"`
	Message  string   `yaml:"message" json:"message"`
	Priority Priority `yaml:"priority" json:"priority"`
}

func (t AlertTemplate) render(reading string) Alert {
	return Alert{
		Title:    t.Title,
		Message:  strings.ReplaceAll(t.Message, ReadingPlaceholder, reading),
		Priority: t.Priority,
	}
}

func (t AlertTemplate) validate(name string) error {
	if t.Title == "" {
		return fmt.Errorf("%s: title is required", name)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%s: invalid priority %q", name, t.Priority)
	}
	return nil
}

type PressureThreshold struct {
	Systolic  int           `yaml:"systolic" json:"systolic"`
	Diastolic int           `yaml:"diastolic" json:"diastolic"`
	Alert     AlertTemplate `yaml:"alert" json:"alert"`
}

type PressureThresholds struct {
	Critical PressureThreshold `yaml:"critical" json:"critical"`
	High     PressureThreshold `yaml:"high" json:"high"`
}

// HeartRateThreshold alerts when the rate is above Max or below Min.
type HeartRateThreshold struct {
	Min   int           `yaml:"min" json:"min"`
	Max   int           `yaml:"max" json:"max"`
	Alert AlertTemplate `yaml:"alert" json:"alert"`
}

type OxygenThreshold struct {
	Below int           `yaml:"below" json:"below"`
	Alert AlertTemplate `yaml:"alert" json:"alert"`
}

type OxygenThresholds struct {
	Critical OxygenThreshold `yaml:"critical" json:"critical"`
	Low      OxygenThreshold `yaml:"low" json:"low"`
}

type TemperatureThreshold struct {
	AtLeast float64       `yaml:"at_least" json:"at_least"`
	Alert   AlertTemplate `yaml:"alert" json:"alert"`
}

// ThresholdRules is the alerting table used for wearable readings. It shares
// no bands with Rules.
type ThresholdRules struct {
	BloodPressure PressureThresholds   `yaml:"blood_pressure" json:"blood_pressure"`
	HeartRate     HeartRateThreshold   `yaml:"heart_rate" json:"heart_rate"`
	SpO2          OxygenThresholds     `yaml:"spo2" json:"spo2"`
	Temperature   TemperatureThreshold `yaml:"temperature" json:"temperature"`
}

// DefaultThresholdRules returns the alerting table for device readings.
func DefaultThresholdRules() ThresholdRules {
	return ThresholdRules{
		BloodPressure: PressureThresholds{
			Critical: PressureThreshold{Systolic: 160, Diastolic: 110, Alert: AlertTemplate{
				Title:    "Critical Blood Pressure",
				Message:  "BP reading: {{reading}} mmHg - Immediate attention required",
				Priority: PriorityCritical,
			}},
			High: PressureThreshold{Systolic: 140, Diastolic: 90, Alert: AlertTemplate{
				Title:    "High Blood Pressure",
				Message:  "BP reading: {{reading}} mmHg - Monitor closely",
				Priority: PriorityHigh,
			}},
		},
		HeartRate: HeartRateThreshold{Min: 50, Max: 120, Alert: AlertTemplate{
			Title:    "Abnormal Heart Rate",
			Message:  "Heart rate: {{reading}} bpm - Requires evaluation",
			Priority: PriorityHigh,
		}},
		SpO2: OxygenThresholds{
			Critical: OxygenThreshold{Below: 90, Alert: AlertTemplate{
				Title:    "Critical Oxygen Level",
				Message:  "SpO2: {{reading}}% - Immediate medical attention required",
				Priority: PriorityCritical,
			}},
			Low: OxygenThreshold{Below: 95, Alert: AlertTemplate{
				Title:    "Low Oxygen Level",
				Message:  "SpO2: {{reading}}% - Monitor closely",
				Priority: PriorityHigh,
			}},
		},
		Temperature: TemperatureThreshold{AtLeast: 39, Alert: AlertTemplate{
			Title:    "High Fever",
			Message:  "Temperature: {{reading}}°C - Medical attention required",
			Priority: PriorityHigh,
		}},
	}
}

func (r ThresholdRules) Validate() error {
	var errs []error
	bp := r.BloodPressure
	if bp.Critical.Systolic < bp.High.Systolic || bp.Critical.Diastolic < bp.High.Diastolic {
		errs = append(errs, errors.New("blood_pressure: critical threshold must not be below high threshold"))
	}
	if r.HeartRate.Min >= r.HeartRate.Max {
		errs = append(errs, errors.New("heart_rate: min must be below max"))
	}
	if r.SpO2.Critical.Below > r.SpO2.Low.Below {
		errs = append(errs, errors.New("spo2: critical threshold must not be above low threshold"))
	}
	for name, t := range map[string]AlertTemplate{
		"blood_pressure.critical": bp.Critical.Alert,
		"blood_pressure.high":     bp.High.Alert,
		"heart_rate":              r.HeartRate.Alert,
		"spo2.critical":           r.SpO2.Critical.Alert,
		"spo2.low":                r.SpO2.Low.Alert,
		"temperature":             r.Temperature.Alert,
	} {
		if err := t.validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Alerter checks vitals against an immutable ThresholdRules table. It is
// safe for concurrent use.
type Alerter struct {
	rules ThresholdRules
}

func NewAlerter(rules ThresholdRules) (*Alerter, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid threshold rules: %w", err)
	}
	return &Alerter{rules: rules}, nil
}

func (a *Alerter) Rules() ThresholdRules {
	return a.rules
}

// Check returns the alerts raised by v in the order blood pressure, heart
// rate, SpO2, temperature. Each vital raises at most one alert. The result
// is empty, never nil, when nothing crosses a threshold.
func (a *Alerter) Check(v Vitals) []Alert {
	alerts := make([]Alert, 0, 2)

	if sys, ok := v.Systolic.Get(); ok {
		dia, hasDia := v.Diastolic.Get()
		reading := v.Systolic.String() + "/" + v.Diastolic.String()
		bp := a.rules.BloodPressure
		switch {
		case sys >= float64(bp.Critical.Systolic) || (hasDia && dia >= float64(bp.Critical.Diastolic)):
			alerts = append(alerts, bp.Critical.Alert.render(reading))
		case sys >= float64(bp.High.Systolic) || (hasDia && dia >= float64(bp.High.Diastolic)):
			alerts = append(alerts, bp.High.Alert.render(reading))
		}
	}

	if hr, ok := v.HeartRate.Get(); ok {
		t := a.rules.HeartRate
		if hr > float64(t.Max) || hr < float64(t.Min) {
			alerts = append(alerts, t.Alert.render(v.HeartRate.String()))
		}
	}

	if o2, ok := v.SpO2.Get(); ok {
		ox := a.rules.SpO2
		switch {
		case o2 < float64(ox.Critical.Below):
			alerts = append(alerts, ox.Critical.Alert.render(v.SpO2.String()))
		case o2 < float64(ox.Low.Below):
			alerts = append(alerts, ox.Low.Alert.render(v.SpO2.String()))
		}
	}

	if temp, ok := v.Temperature.Get(); ok {
		t := a.rules.Temperature
		if temp >= t.AtLeast {
			alerts = append(alerts, t.Alert.render(v.Temperature.String()))
		}
	}

	return alerts
}
