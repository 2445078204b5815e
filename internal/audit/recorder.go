// Package audit is the operational-visibility channel: mutations and
// best-effort reconciliation outcomes are recorded here, never in API
// responses. It also runs the periodic alert/vehicle consistency sweep.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/avaldez96/rescue-dispatch/internal/models"
	"github.com/avaldez96/rescue-dispatch/internal/repository"
	"github.com/avaldez96/rescue-dispatch/internal/worker"
)

// Sink accepts audit events. Recording must never block or fail a request.
type Sink interface {
	Record(ev models.AuditEvent)
}

type nopSink struct{}

func (nopSink) Record(models.AuditEvent) {}

// Nop returns a Sink that discards everything.
func Nop() Sink { return nopSink{} }

// Recorder persists audit events asynchronously through a worker pool so
// request handlers never wait on the audit write.
type Recorder struct {
	repo repository.AuditRepository
	pool *worker.Pool[models.AuditEvent]
}

func NewRecorder(repo repository.AuditRepository, workers, bufferSize int) *Recorder {
	r := &Recorder{repo: repo}
	r.pool = worker.NewPool(workers, bufferSize, r.process)
	return r
}

func (r *Recorder) Start(ctx context.Context) {
	r.pool.Start(ctx)
}

// Record enqueues an event. A full buffer drops the event with a log line
// rather than stalling the caller.
func (r *Recorder) Record(ev models.AuditEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	if !r.pool.TrySubmit(ev) {
		slog.Warn("audit buffer full, dropping event",
			"action", ev.Action, "outcome", ev.Outcome)
	}
}

func (r *Recorder) Stop() {
	r.pool.Stop()
}

func (r *Recorder) process(ctx context.Context, ev models.AuditEvent) error {
	if err := r.repo.AddAuditEvent(ctx, &ev); err != nil {
		slog.Error("error persisting audit event",
			"action", ev.Action, "error", err)
		return err
	}
	return nil
}
