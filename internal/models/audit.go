package models

import "time"

const (
	AuditOutcomeOK     = "ok"
	AuditOutcomeFailed = "failed"
)

// AuditEvent records a mutation or a reconciliation outcome for operational
// visibility. Secondary vehicle-write failures surface only here, never in
// the API response.
type AuditEvent struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    int64     `json:"actor_id"`
	ActorRole  Role      `json:"actor_role"`
	Action     string    `json:"action"`
	AlertID    *int64    `json:"alert_id,omitempty"`
	VehicleID  *int64    `json:"vehicle_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
}
