package models

import "time"

type AlertType string

const (
	AlertTypeMedical         AlertType = "medical"
	AlertTypeFire            AlertType = "fire"
	AlertTypeAccident        AlertType = "accident"
	AlertTypeCrime           AlertType = "crime"
	AlertTypeNaturalDisaster AlertType = "natural_disaster"
	AlertTypeOther           AlertType = "other"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeMedical, AlertTypeFire, AlertTypeAccident, AlertTypeCrime,
		AlertTypeNaturalDisaster, AlertTypeOther:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertStatusPending    AlertStatus = "pending"
	AlertStatusResponding AlertStatus = "responding"
	AlertStatusResolved   AlertStatus = "resolved"
	AlertStatusCancelled  AlertStatus = "cancelled"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusPending, AlertStatusResponding, AlertStatusResolved, AlertStatusCancelled:
		return true
	}
	return false
}

type Alert struct {
	ID                  int64       `json:"id"`
	Type                AlertType   `json:"alert_type"`
	Severity            Severity    `json:"severity"`
	Title               string      `json:"title"`
	Description         string      `json:"description,omitempty"`
	Location            string      `json:"location"`
	Latitude            *float64    `json:"latitude"`
	Longitude           *float64    `json:"longitude"`
	ImageURL            string      `json:"image_url,omitempty"`
	Status              AlertStatus `json:"status"`
	AssignedVehicleID   *int64      `json:"assigned_vehicle_id"`
	AssignedResponderID *int64      `json:"assigned_responder_id"`
	UserID              int64       `json:"user_id"`
	ReportedAt          time.Time   `json:"reported_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// UserSummary is the slice of a user embedded in joined alert reads.
type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// VehicleSummary is the slice of a vehicle embedded in joined alert reads.
type VehicleSummary struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	Status VehicleStatus `json:"status"`
}

// AlertDetail is an alert joined with summaries of its reporter, assigned
// vehicle and assigned responder.
type AlertDetail struct {
	Alert
	User      *UserSummary    `json:"user,omitempty"`
	Vehicle   *VehicleSummary `json:"assigned_vehicle,omitempty"`
	Responder *UserSummary    `json:"assigned_responder,omitempty"`
}
