package models

type VehicleStatus string

const (
	VehicleStatusAvailable    VehicleStatus = "available"
	VehicleStatusAssigned     VehicleStatus = "assigned"
	VehicleStatusResponding   VehicleStatus = "responding"
	VehicleStatusMaintenance  VehicleStatus = "maintenance"
	VehicleStatusOutOfService VehicleStatus = "out_of_service"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusAssigned, VehicleStatusResponding,
		VehicleStatusMaintenance, VehicleStatusOutOfService:
		return true
	}
	return false
}

// Vehicle is owned by fleet management; this service only reads display
// fields and writes status as a side effect of alert assignment.
type Vehicle struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	Status VehicleStatus `json:"status"`
}
