package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/platform/events"
)

const (
	TypeHighRiskAlert  = "high_risk_alert"
	TypeEmergencyAlert = "emergency_alert"
	TypeVitalAlert     = "vital_alert"
)

const (
	PriorityLow      = "low"
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ListLimit caps how many notifications a feed returns.
const ListLimit = 50

type Notification struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	MotherID     *uuid.UUID `json:"mother_id,omitempty"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
	TargetRole   *string    `json:"target_role,omitempty"`
	Priority     string     `json:"priority"`
	IsRead       bool       `json:"is_read"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func validPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Event returns the broadcast form of n.
func (n *Notification) Event() events.Alert {
	a := events.Alert{
		ID:        n.ID,
		Type:      n.Type,
		Priority:  n.Priority,
		Title:     n.Title,
		Message:   n.Message,
		MotherID:  n.MotherID,
		CreatedAt: n.CreatedAt,
	}
	if n.TargetRole != nil {
		a.TargetRole = *n.TargetRole
	}
	return a
}
