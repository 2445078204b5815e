package repository

import (
	"context"
	"time"

	"github.com/avaldez96/rescue-dispatch/internal/models"
)

// AlertFilter narrows List results. Nil fields are not applied.
type AlertFilter struct {
	Status *models.AlertStatus
	Type   *models.AlertType
	UserID *int64
}

// AlertPatch is a partial update. Nil fields leave the stored value
// untouched.
type AlertPatch struct {
	Type        *models.AlertType
	Severity    *models.Severity
	Title       *string
	Description *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	ImageURL    *string
	Status      *models.AlertStatus
}

// Assignment is the full vehicle/responder assignment of an alert. Nil
// fields clear the corresponding column.
type Assignment struct {
	VehicleID   *int64
	ResponderID *int64
}

// AssignmentRow is the minimal join the consistency sweeper works from.
type AssignmentRow struct {
	AlertID       int64
	Status        models.AlertStatus
	VehicleID     *int64
	VehicleStatus *models.VehicleStatus
}

type AlertRepository interface {
	List(ctx context.Context, f AlertFilter) ([]models.AlertDetail, error)
	// GetByID returns (nil, nil) when no alert has that id.
	GetByID(ctx context.Context, id int64) (*models.AlertDetail, error)
	Create(ctx context.Context, a *models.Alert) error
	// Update, SetStatus, SetAssignment and Delete report false when the id
	// matched no row.
	Update(ctx context.Context, id int64, p AlertPatch, now time.Time) (bool, error)
	SetStatus(ctx context.Context, id int64, status models.AlertStatus, now time.Time) (bool, error)
	SetAssignment(ctx context.Context, id int64, a Assignment, now time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListAssignments(ctx context.Context) ([]AssignmentRow, error)
}

type VehicleRepository interface {
	// GetVehicleByID returns (nil, nil) when no vehicle has that id.
	GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
	SetVehicleStatus(ctx context.Context, id int64, status models.VehicleStatus) error
	ListVehiclesByStatus(ctx context.Context, statuses ...models.VehicleStatus) ([]models.Vehicle, error)
}

type UserRepository interface {
	// GetUserByID returns (nil, nil) when no user has that id.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type AuditRepository interface {
	AddAuditEvent(ctx context.Context, ev *models.AuditEvent) error
}
