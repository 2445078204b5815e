// Package dispatch keeps an alert's vehicle/responder assignment and the
// assigned vehicle's availability status consistent. Vehicle writes are
// deliberately best-effort: the alert write is the primary operation and is
// never rolled back when a vehicle write fails.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/avaldez96/rescue-dispatch/internal/apperr"
	"github.com/avaldez96/rescue-dispatch/internal/audit"
	"github.com/avaldez96/rescue-dispatch/internal/auth"
	"github.com/avaldez96/rescue-dispatch/internal/models"
	"github.com/avaldez96/rescue-dispatch/internal/repository"
)

type Coordinator struct {
	alerts   repository.AlertRepository
	vehicles repository.VehicleRepository
	users    repository.UserRepository
	audit    audit.Sink
	now      func() time.Time
}

func NewCoordinator(alerts repository.AlertRepository, vehicles repository.VehicleRepository, users repository.UserRepository, sink audit.Sink) *Coordinator {
	if sink == nil {
		sink = audit.Nop()
	}
	return &Coordinator{
		alerts:   alerts,
		vehicles: vehicles,
		users:    users,
		audit:    sink,
		now:      time.Now,
	}
}

// Assign writes the alert's vehicle/responder assignment, then releases the
// previously assigned vehicle (if it changed) and claims the new one. A
// responder must be an existing user with the rescuer role. The returned
// alert reflects the requested assignment; it is read before the
// vehicle-status side effects run and not re-read afterwards.
func (c *Coordinator) Assign(ctx context.Context, caller auth.Identity, alertID int64, vehicleID, responderID *int64) (*models.AlertDetail, error) {
	if !auth.Allowed(auth.OpAlertAssign, caller.Role) {
		return nil, apperr.Forbidden("not allowed to assign vehicles")
	}

	prior, err := c.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, apperr.Internal("failed to load alert", err)
	}
	if prior == nil {
		return nil, apperr.NotFound("alert not found")
	}
	priorVehicleID := prior.AssignedVehicleID

	if responderID != nil {
		u, err := c.users.GetUserByID(ctx, *responderID)
		if err != nil {
			return nil, apperr.Internal("failed to load responder", err)
		}
		if u == nil {
			return nil, apperr.BadRequest("responder not found")
		}
		if u.Role != models.RoleRescuer {
			return nil, apperr.BadRequest("responder must have the rescuer role")
		}
	}

	ok, err := c.alerts.SetAssignment(ctx, alertID, repository.Assignment{
		VehicleID:   vehicleID,
		ResponderID: responderID,
	}, c.now())
	if err != nil {
		return nil, apperr.Internal("failed to assign alert", err)
	}
	if !ok {
		return nil, apperr.NotFound("alert not found")
	}

	detail, err := c.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, apperr.Internal("failed to load updated alert", err)
	}
	if detail == nil {
		return nil, apperr.NotFound("alert not found")
	}

	c.audit.Record(models.AuditEvent{
		ActorID:   caller.ID,
		ActorRole: caller.Role,
		Action:    "alert.assign",
		AlertID:   &alertID,
		VehicleID: vehicleID,
		Outcome:   models.AuditOutcomeOK,
	})

	// Release the old vehicle when the assignment moved off it.
	if priorVehicleID != nil && (vehicleID == nil || *vehicleID != *priorVehicleID) {
		c.setVehicleStatus(ctx, caller, alertID, *priorVehicleID, models.VehicleStatusAvailable)
	}
	// Claim the new vehicle.
	if vehicleID != nil {
		c.setVehicleStatus(ctx, caller, alertID, *vehicleID, models.VehicleStatusAssigned)
	}

	return detail, nil
}

// ReconcileVehicleOnStatusChange mirrors an alert status change onto the
// assigned vehicle: responding claims it, resolved releases it. Failures
// are logged and audited, never surfaced; the caller's status write has
// already committed.
func (c *Coordinator) ReconcileVehicleOnStatusChange(ctx context.Context, vehicleID *int64, status models.AlertStatus) {
	if vehicleID == nil {
		return
	}

	var target models.VehicleStatus
	switch status {
	case models.AlertStatusResponding:
		target = models.VehicleStatusResponding
	case models.AlertStatusResolved:
		target = models.VehicleStatusAvailable
	default:
		return
	}

	if err := c.vehicles.SetVehicleStatus(ctx, *vehicleID, target); err != nil {
		slog.Error("vehicle reconciliation failed",
			"vehicle_id", *vehicleID, "target_status", target, "error", err)
		c.audit.Record(models.AuditEvent{
			Action:    "vehicle.reconcile",
			VehicleID: vehicleID,
			Outcome:   models.AuditOutcomeFailed,
			Detail:    err.Error(),
		})
		return
	}

	c.audit.Record(models.AuditEvent{
		Action:    "vehicle.reconcile",
		VehicleID: vehicleID,
		Outcome:   models.AuditOutcomeOK,
		Detail:    string(target),
	})
}

func (c *Coordinator) setVehicleStatus(ctx context.Context, caller auth.Identity, alertID, vehicleID int64, status models.VehicleStatus) {
	if err := c.vehicles.SetVehicleStatus(ctx, vehicleID, status); err != nil {
		slog.Error("vehicle status update failed",
			"alert_id", alertID, "vehicle_id", vehicleID, "target_status", status, "error", err)
		c.audit.Record(models.AuditEvent{
			ActorID:   caller.ID,
			ActorRole: caller.Role,
			Action:    "vehicle.set_status",
			AlertID:   &alertID,
			VehicleID: &vehicleID,
			Outcome:   models.AuditOutcomeFailed,
			Detail:    err.Error(),
		})
	}
}
