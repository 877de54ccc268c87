package triage

import (
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/risk"
)

// Record is a stored triage assessment.
type Record struct {
	ID           uuid.UUID  `json:"id"`
	MotherID     uuid.UUID  `json:"mother_id"`
	Symptoms     []string   `json:"symptoms"`
	Systolic     *float64   `json:"blood_pressure_systolic,omitempty"`
	Diastolic    *float64   `json:"blood_pressure_diastolic,omitempty"`
	HeartRate    *float64   `json:"heart_rate,omitempty"`
	Temperature  *float64   `json:"temperature,omitempty"`
	SpO2         *float64   `json:"spo2,omitempty"`
	RiskScore    int        `json:"risk_score"`
	RiskLevel    string     `json:"risk_level"`
	Factors      []string   `json:"factors"`
	Notes        *string    `json:"notes,omitempty"`
	AssessedBy   *uuid.UUID `json:"assessed_by,omitempty"`
	AssessorName *string    `json:"assessor_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Input is a parsed triage request.
type Input struct {
	MotherID uuid.UUID
	Symptoms risk.SymptomSet
	Vitals   risk.Vitals
	Notes    *string
	// Ignored lists request fields that were present but unusable.
	Ignored []risk.FieldIssue
}

// Result is returned to the caller after a triage is stored.
type Result struct {
	Message     string            `json:"message"`
	ID          uuid.UUID         `json:"id"`
	MotherID    uuid.UUID         `json:"mother_id"`
	RiskScore   risk.Assessment   `json:"risk_score"`
	Ignored     []risk.FieldIssue `json:"ignored,omitempty"`
	AssignedCHW *uuid.UUID        `json:"assigned_chw,omitempty"`
}
