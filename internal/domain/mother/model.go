package mother

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type Mother struct {
	ID                      uuid.UUID  `json:"id"`
	UserID                  *uuid.UUID `json:"user_id,omitempty"`
	FullName                string     `json:"full_name"`
	Age                     *int       `json:"age,omitempty"`
	Phone                   *string    `json:"phone,omitempty"`
	Address                 *string    `json:"address,omitempty"`
	LGACommunity            *string    `json:"lga_community,omitempty"`
	Parity                  int        `json:"parity"`
	Gravidity               int        `json:"gravidity"`
	PreviousOutcomes        *string    `json:"previous_outcomes,omitempty"`
	PreExistingConditions   *string    `json:"pre_existing_conditions,omitempty"`
	CurrentPregnancyDetails *string    `json:"current_pregnancy_details,omitempty"`
	ANCHistory              *string    `json:"anc_history,omitempty"`
	NextAppointment         *string    `json:"next_appointment,omitempty"`
	RiskLevel               string     `json:"risk_level"`
	LastTriageDate          *time.Time `json:"last_triage_date,omitempty"`
	RegisteredBy            *uuid.UUID `json:"registered_by,omitempty"`
	DeviceAssigned          bool       `json:"device_assigned"`
	DeviceID                *string    `json:"device_id,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// Patch is a partial update. Nil fields keep their stored value.
type Patch struct {
	FullName                *string `json:"full_name"`
	Age                     *int    `json:"age"`
	Phone                   *string `json:"phone"`
	Address                 *string `json:"address"`
	LGACommunity            *string `json:"lga_community"`
	Parity                  *int    `json:"parity"`
	Gravidity               *int    `json:"gravidity"`
	PreviousOutcomes        *string `json:"previous_outcomes"`
	PreExistingConditions   *string `json:"pre_existing_conditions"`
	CurrentPregnancyDetails *string `json:"current_pregnancy_details"`
	ANCHistory              *string `json:"anc_history"`
	NextAppointment         *string `json:"next_appointment"`
	DeviceID                *string `json:"device_id"`
}
