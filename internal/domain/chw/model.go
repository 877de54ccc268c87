package chw

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links a mother to the CHW following her up.
type Assignment struct {
	ID            uuid.UUID  `json:"id"`
	MotherID      uuid.UUID  `json:"mother_id"`
	MotherName    string     `json:"mother_name"`
	MotherPhone   *string    `json:"mother_phone,omitempty"`
	MotherAddress *string    `json:"mother_address,omitempty"`
	RiskLevel     string     `json:"risk_level"`
	CHWID         *uuid.UUID `json:"chw_id,omitempty"`
	CHWName       *string    `json:"chw_name,omitempty"`
	Priority      string     `json:"priority"`
	AssignedAt    time.Time  `json:"assigned_at"`
}

type Visit struct {
	ID                uuid.UUID      `json:"id"`
	MotherID          uuid.UUID      `json:"mother_id"`
	CHWID             uuid.UUID      `json:"chw_id"`
	CHWName           *string        `json:"chw_name,omitempty"`
	VisitDate         *time.Time     `json:"visit_date"`
	SymptomsObserved  []string       `json:"symptoms_observed"`
	MotherCondition   *string        `json:"mother_condition,omitempty"`
	DangerSigns       []string       `json:"danger_signs"`
	Vitals            map[string]any `json:"vitals"`
	ReferralNeeded    bool           `json:"referral_needed"`
	ReferralReason    *string        `json:"referral_reason,omitempty"`
	EducationProvided []string       `json:"education_provided"`
	Notes             *string        `json:"notes,omitempty"`
	NextVisitDate     *string        `json:"next_visit_date,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (v *Visit) normalize() {
	if v.SymptomsObserved == nil {
		v.SymptomsObserved = []string{}
	}
	if v.DangerSigns == nil {
		v.DangerSigns = []string{}
	}
	if v.EducationProvided == nil {
		v.EducationProvided = []string{}
	}
	if v.Vitals == nil {
		v.Vitals = map[string]any{}
	}
}
