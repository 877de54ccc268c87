package dashboard

import (
	"time"

	"github.com/google/uuid"
)

// RecentWindow is how far back registrations are counted.
const RecentWindow = 7 * 24 * time.Hour

type Followup struct {
	Assigned int `json:"assigned"`
	Visited  int `json:"visited"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalMothers        int            `json:"total_mothers"`
	RiskBreakdown       map[string]int `json:"risk_breakdown"`
	ActiveEmergencies   int            `json:"active_emergencies"`
	MissedANC           int            `json:"missed_anc"`
	FollowupProgress    Followup       `json:"followup_progress"`
	ReferralStats       map[string]int `json:"referral_stats"`
	RecentRegistrations []DayCount     `json:"recent_registrations"`
}

// HighRiskMother is a mother at high_risk or emergency with her latest
// triage score.
type HighRiskMother struct {
	ID              uuid.UUID  `json:"id"`
	FullName        string     `json:"full_name"`
	Phone           *string    `json:"phone,omitempty"`
	Address         *string    `json:"address,omitempty"`
	LGACommunity    *string    `json:"lga_community,omitempty"`
	RiskLevel       string     `json:"risk_level"`
	NextAppointment *string    `json:"next_appointment,omitempty"`
	RiskScore       *int       `json:"risk_score,omitempty"`
	LastAssessment  *time.Time `json:"last_assessment,omitempty"`
}
