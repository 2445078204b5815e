package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avaldez96/rescue-dispatch/internal/models"
	"github.com/avaldez96/rescue-dispatch/internal/repository"
)

// Sweeper periodically compares alert assignments against vehicle statuses
// and reports divergence. It only observes: the assignment/vehicle
// consistency model is best-effort by design, so the sweeper never repairs
// what it finds.
type Sweeper struct {
	alerts   repository.AlertRepository
	vehicles repository.VehicleRepository
	interval time.Duration
	sink     Sink
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSweeper(alerts repository.AlertRepository, vehicles repository.VehicleRepository, interval time.Duration, sink Sink) *Sweeper {
	if sink == nil {
		sink = Nop()
	}
	return &Sweeper{
		alerts:   alerts,
		vehicles: vehicles,
		interval: interval,
		sink:     sink,
		stop:     make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop ends the sweep loop and waits for it to exit. It does not depend on
// the Start context being cancelled, so shutdown can stop the sweeper while
// the background context is still live.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	slog.Info("starting consistency sweeper", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("consistency sweeper shutting down")
			return
		case <-s.stop:
			slog.Info("consistency sweeper shutting down")
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				slog.Error("consistency sweep failed", "error", err)
			} else if n > 0 {
				slog.Warn("consistency sweep found mismatches", "count", n)
			}
		}
	}
}

// Sweep runs one pass and returns the number of mismatches found.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	rows, err := s.alerts.ListAssignments(ctx)
	if err != nil {
		return 0, err
	}

	mismatches := 0
	referenced := make(map[int64]bool)

	for _, r := range rows {
		if r.VehicleID == nil {
			continue
		}
		referenced[*r.VehicleID] = true

		switch r.Status {
		case models.AlertStatusResponding:
			if r.VehicleStatus == nil || *r.VehicleStatus != models.VehicleStatusResponding {
				mismatches++
				s.report(r.AlertID, *r.VehicleID, fmt.Sprintf(
					"alert %d is responding but vehicle %d is not", r.AlertID, *r.VehicleID))
			}
		case models.AlertStatusResolved, models.AlertStatusCancelled:
			mismatches++
			s.report(r.AlertID, *r.VehicleID, fmt.Sprintf(
				"alert %d is %s but still holds vehicle %d", r.AlertID, r.Status, *r.VehicleID))
		}
	}

	busy, err := s.vehicles.ListVehiclesByStatus(ctx,
		models.VehicleStatusAssigned, models.VehicleStatusResponding)
	if err != nil {
		return mismatches, err
	}
	for _, v := range busy {
		if !referenced[v.ID] {
			mismatches++
			s.reportVehicle(v.ID, fmt.Sprintf(
				"vehicle %d is %s but no alert references it", v.ID, v.Status))
		}
	}

	return mismatches, nil
}

func (s *Sweeper) report(alertID, vehicleID int64, detail string) {
	slog.Warn("assignment mismatch", "alert_id", alertID, "vehicle_id", vehicleID, "detail", detail)
	s.sink.Record(models.AuditEvent{
		Action:    "consistency.mismatch",
		AlertID:   &alertID,
		VehicleID: &vehicleID,
		Outcome:   models.AuditOutcomeFailed,
		Detail:    detail,
	})
}

func (s *Sweeper) reportVehicle(vehicleID int64, detail string) {
	slog.Warn("assignment mismatch", "vehicle_id", vehicleID, "detail", detail)
	s.sink.Record(models.AuditEvent{
		Action:    "consistency.mismatch",
		VehicleID: &vehicleID,
		Outcome:   models.AuditOutcomeFailed,
		Detail:    detail,
	})
}
