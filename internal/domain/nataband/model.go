package nataband

import (
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/risk"
)

// Reading sources.
const (
	SourceManual = "manual"
	SourceDevice = "device"
)

// ReadingListLimit caps the readings returned per mother.
const ReadingListLimit = 50

// Reading maps to the nataband_readings table.
type Reading struct {
	ID            uuid.UUID `json:"id"`
	MotherID      uuid.UUID `json:"mother_id"`
	DeviceID      *string   `json:"device_id,omitempty"`
	HeartRate     *float64  `json:"heart_rate,omitempty"`
	Systolic      *float64  `json:"blood_pressure_systolic,omitempty"`
	Diastolic     *float64  `json:"blood_pressure_diastolic,omitempty"`
	Temperature   *float64  `json:"temperature,omitempty"`
	SpO2          *float64  `json:"spo2,omitempty"`
	ActivityLevel *string   `json:"activity_level,omitempty"`
	Source        string    `json:"reading_source"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// Input is a parsed vitals submission.
type Input struct {
	MotherID      uuid.UUID
	DeviceID      *string
	Vitals        risk.Vitals
	ActivityLevel *string
	Source        string
	// RecordedAt is when the device took the reading; zero means now.
	RecordedAt time.Time
	Ignored    []risk.FieldIssue
}

// Result is returned after a reading is stored.
type Result struct {
	Message string            `json:"message"`
	ID      uuid.UUID         `json:"id"`
	Alerts  []risk.Alert      `json:"alerts"`
	Ignored []risk.FieldIssue `json:"ignored,omitempty"`
}
