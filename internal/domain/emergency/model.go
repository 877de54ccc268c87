package emergency

import (
	"time"

	"github.com/google/uuid"
)

// Alert status values.
const (
	StatusActive     = "active"
	StatusResponding = "responding"
	StatusResolved   = "resolved"
	StatusCancelled  = "cancelled"
)

// Referral urgency values.
const (
	UrgencyRoutine   = "routine"
	UrgencyUrgent    = "urgent"
	UrgencyEmergency = "emergency"
)

const ReferralPending = "pending"

// Alert maps to the emergency_alerts table. The mother fields are joined in
// when alerts are listed.
type Alert struct {
	ID              uuid.UUID  `json:"id"`
	MotherID        *uuid.UUID `json:"mother_id,omitempty"`
	AlertType       string     `json:"alert_type"`
	Description     *string    `json:"description,omitempty"`
	LocationLat     *float64   `json:"location_lat,omitempty"`
	LocationLng     *float64   `json:"location_lng,omitempty"`
	LocationAddress *string    `json:"location_address,omitempty"`
	Status          string     `json:"status"`
	ResponderID     *uuid.UUID `json:"responder_id,omitempty"`
	ResponseNotes   *string    `json:"response_notes,omitempty"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	MotherName      *string    `json:"mother_name,omitempty"`
	MotherPhone     *string    `json:"mother_phone,omitempty"`
	MotherAddress   *string    `json:"mother_address,omitempty"`
}

// AlertUpdate carries the fields a responder may change. Nil fields keep
// their stored value.
type AlertUpdate struct {
	Status        *string    `json:"status"`
	ResponderID   *uuid.UUID `json:"responder_id"`
	ResponseNotes *string    `json:"response_notes"`
}

// Referral maps to the referrals table.
type Referral struct {
	ID                uuid.UUID  `json:"id"`
	MotherID          uuid.UUID  `json:"mother_id"`
	FromFacility      *string    `json:"from_facility,omitempty"`
	ToFacility        *string    `json:"to_facility,omitempty"`
	Reason            *string    `json:"reason,omitempty"`
	Urgency           string     `json:"urgency"`
	ClinicalNotes     *string    `json:"clinical_notes,omitempty"`
	TransportArranged bool       `json:"transport_arranged"`
	TransportType     *string    `json:"transport_type,omitempty"`
	TransportContact  *string    `json:"transport_contact,omitempty"`
	Status            string     `json:"status"`
	ReferredBy        *uuid.UUID `json:"referred_by,omitempty"`
	ReceivedBy        *uuid.UUID `json:"received_by,omitempty"`
	Outcome           *string    `json:"outcome,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// TransportContact is a driver or service that can move a mother to care.
type TransportContact struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Phone          string    `json:"phone"`
	AlternatePhone *string   `json:"alternate_phone,omitempty"`
	LGACommunity   *string   `json:"lga_community,omitempty"`
	VehicleType    *string   `json:"vehicle_type,omitempty"`
	Availability   *string   `json:"availability,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func validStatus(s string) bool {
	switch s {
	case StatusActive, StatusResponding, StatusResolved, StatusCancelled:
		return true
	}
	return false
}

func validUrgency(u string) bool {
	switch u {
	case UrgencyRoutine, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}
