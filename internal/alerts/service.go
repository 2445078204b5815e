// Package alerts implements the alert lifecycle: creation, listing,
// partial updates, status transitions and deletion, with role checks
// evaluated before any store write.
package alerts

import (
	"context"
	"strings"
	"time"

	"github.com/avaldez96/rescue-dispatch/internal/apperr"
	"github.com/avaldez96/rescue-dispatch/internal/audit"
	"github.com/avaldez96/rescue-dispatch/internal/auth"
	"github.com/avaldez96/rescue-dispatch/internal/models"
	"github.com/avaldez96/rescue-dispatch/internal/repository"
)

// Reconciler propagates an alert status change to the assigned vehicle.
// Implementations must swallow their own failures; the status write has
// already committed by the time this runs.
type Reconciler interface {
	ReconcileVehicleOnStatusChange(ctx context.Context, vehicleID *int64, status models.AlertStatus)
}

type Service struct {
	repo       repository.AlertRepository
	reconciler Reconciler
	audit      audit.Sink
	now        func() time.Time
}

func NewService(repo repository.AlertRepository, reconciler Reconciler, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Nop()
	}
	return &Service{
		repo:       repo,
		reconciler: reconciler,
		audit:      sink,
		now:        time.Now,
	}
}

// List returns alerts newest-first, joined with user/vehicle/responder
// summaries. Callers with the user role only ever see their own alerts; the
// requested user_id filter is overridden, not rejected.
func (s *Service) List(ctx context.Context, caller auth.Identity, f repository.AlertFilter) ([]models.AlertDetail, error) {
	if !auth.Allowed(auth.OpAlertList, caller.Role) {
		return nil, apperr.Forbidden("not allowed to list alerts")
	}

	if caller.Role == models.RoleUser {
		f.UserID = &caller.ID
	}

	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("failed to list alerts", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id int64) (*models.AlertDetail, error) {
	if !auth.Allowed(auth.OpAlertGet, caller.Role) {
		return nil, apperr.Forbidden("not allowed to view alerts")
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to get alert", err)
	}
	if d == nil {
		return nil, apperr.NotFound("alert not found")
	}
	if caller.Role == models.RoleUser && d.UserID != caller.ID {
		return nil, apperr.Forbidden("not allowed to view this alert")
	}
	return d, nil
}

type CreateInput struct {
	AlertType   string   `json:"alert_type"`
	Severity    string   `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    string   `json:"image_url"`
}

// Create files a new alert owned by the caller. Ownership always comes from
// the verified identity; a user_id in the payload is ignored.
func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*models.AlertDetail, error) {
	if !auth.Allowed(auth.OpAlertCreate, caller.Role) {
		return nil, apperr.Forbidden("not allowed to create alerts")
	}

	alertType := models.AlertType(strings.TrimSpace(in.AlertType))
	severity := models.Severity(strings.TrimSpace(in.Severity))
	title := strings.TrimSpace(in.Title)
	location := strings.TrimSpace(in.Location)

	if alertType == "" {
		return nil, apperr.BadRequest("alert_type is required")
	}
	if !alertType.Valid() {
		return nil, apperr.BadRequest("alert_type must be one of: medical, fire, accident, crime, natural_disaster, other")
	}
	if severity == "" {
		return nil, apperr.BadRequest("severity is required")
	}
	if !severity.Valid() {
		return nil, apperr.BadRequest("severity must be one of: low, medium, high, critical")
	}
	if title == "" {
		return nil, apperr.BadRequest("title is required")
	}
	if location == "" {
		return nil, apperr.BadRequest("location is required")
	}

	now := s.now()
	a := &models.Alert{
		Type:        alertType,
		Severity:    severity,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		ImageURL:    in.ImageURL,
		Status:      models.AlertStatusPending,
		UserID:      caller.ID,
		ReportedAt:  now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Internal("failed to create alert", err)
	}

	s.record(caller, "alert.create", a.ID, models.AuditOutcomeOK, "")

	d, err := s.repo.GetByID(ctx, a.ID)
	if err != nil || d == nil {
		// the insert succeeded; fall back to the bare record
		return &models.AlertDetail{Alert: *a}, nil
	}
	return d, nil
}

type UpdateInput struct {
	AlertType   *string  `json:"alert_type"`
	Severity    *string  `json:"severity"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    *string  `json:"image_url"`
	Status      *string  `json:"status"`
}

// Update applies a partial merge: fields absent from the payload keep their
// stored values. Restricted to admin and dispatcher.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id int64, in UpdateInput) (*models.AlertDetail, error) {
	if !auth.Allowed(auth.OpAlertUpdate, caller.Role) {
		return nil, apperr.Forbidden("not allowed to update alerts")
	}

	var p repository.AlertPatch

	if in.AlertType != nil {
		t := models.AlertType(strings.TrimSpace(*in.AlertType))
		if !t.Valid() {
			return nil, apperr.BadRequest("alert_type must be one of: medical, fire, accident, crime, natural_disaster, other")
		}
		p.Type = &t
	}
	if in.Severity != nil {
		sv := models.Severity(strings.TrimSpace(*in.Severity))
		if !sv.Valid() {
			return nil, apperr.BadRequest("severity must be one of: low, medium, high, critical")
		}
		p.Severity = &sv
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, apperr.BadRequest("title must not be empty")
		}
		p.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		p.Description = &d
	}
	if in.Location != nil {
		l := strings.TrimSpace(*in.Location)
		if l == "" {
			return nil, apperr.BadRequest("location must not be empty")
		}
		p.Location = &l
	}
	if in.Latitude != nil {
		p.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		p.Longitude = in.Longitude
	}
	if in.ImageURL != nil {
		p.ImageURL = in.ImageURL
	}
	if in.Status != nil {
		st := models.AlertStatus(strings.TrimSpace(*in.Status))
		if !st.Valid() {
			return nil, apperr.BadRequest("status must be one of: pending, responding, resolved, cancelled")
		}
		p.Status = &st
	}

	ok, err := s.repo.Update(ctx, id, p, s.now())
	if err != nil {
		return nil, apperr.Internal("failed to update alert", err)
	}
	if !ok {
		return nil, apperr.NotFound("alert not found")
	}

	s.record(caller, "alert.update", id, models.AuditOutcomeOK, "")

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load updated alert", err)
	}
	if d == nil {
		return nil, apperr.NotFound("alert not found")
	}
	return d, nil
}

// SetStatus performs the primary status write and then hands the alert's
// current vehicle assignment to the reconciler. The returned alert reflects
// the status write only; the vehicle side effect is best-effort and not
// re-read.
func (s *Service) SetStatus(ctx context.Context, caller auth.Identity, id int64, status string) (*models.AlertDetail, error) {
	st := models.AlertStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, apperr.BadRequest("status must be one of: pending, responding, resolved, cancelled")
	}

	if !auth.Allowed(auth.OpAlertSetStatus, caller.Role) {
		return nil, apperr.Forbidden("not allowed to change alert status")
	}

	ok, err := s.repo.SetStatus(ctx, id, st, s.now())
	if err != nil {
		return nil, apperr.Internal("failed to set alert status", err)
	}
	if !ok {
		return nil, apperr.NotFound("alert not found")
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load updated alert", err)
	}
	if d == nil {
		return nil, apperr.NotFound("alert not found")
	}

	s.record(caller, "alert.set_status", id, models.AuditOutcomeOK, string(st))

	if s.reconciler != nil {
		s.reconciler.ReconcileVehicleOnStatusChange(ctx, d.AssignedVehicleID, st)
	}

	return d, nil
}

// Delete removes an alert. Admin only; the assigned vehicle, if any, is
// deliberately left untouched.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id int64) error {
	if !auth.Allowed(auth.OpAlertDelete, caller.Role) {
		return apperr.Forbidden("not allowed to delete alerts")
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("failed to delete alert", err)
	}
	if !ok {
		return apperr.NotFound("alert not found")
	}

	s.record(caller, "alert.delete", id, models.AuditOutcomeOK, "")
	return nil
}

func (s *Service) record(caller auth.Identity, action string, alertID int64, outcome, detail string) {
	s.audit.Record(models.AuditEvent{
		ActorID:   caller.ID,
		ActorRole: caller.Role,
		Action:    action,
		AlertID:   &alertID,
		Outcome:   outcome,
		Detail:    detail,
	})
}
