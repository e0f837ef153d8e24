package river

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/zithekhosa/propflow/internal/domain"
)

// TransitionWorker processes workflow transition jobs from the River queue.
// For now it logs the transition; future versions will dispatch to
// notification systems (eviction notices to tenants, bid alerts to
// providers, payment reminders to agencies).
type TransitionWorker struct {
	river.WorkerDefaults[TransitionJobArgs]
}

// Work processes a single transition job.
func (w *TransitionWorker) Work(ctx context.Context, job *river.Job[TransitionJobArgs]) error {
	slog.InfoContext(ctx, "processing workflow transition",
		"workflow", job.Args.Workflow,
		"action", job.Args.Action,
		"instance_id", job.Args.InstanceID,
		"state", job.Args.State,
		"actor_role", job.Args.ActorRole,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// OverdueScanArgs triggers a scan for commission deals past their due date.
// The scan is read-only: overdue is always derived, never written back.
type OverdueScanArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (OverdueScanArgs) Kind() string { return "commission.overdue_scan" }

// OverdueScanWorker periodically surfaces deals whose due date has passed
// while payment is still pending. It only reports; marking a deal paid
// remains a user action through the API.
type OverdueScanWorker struct {
	river.WorkerDefaults[OverdueScanArgs]

	deals domain.CommissionRepository
	clock domain.Clock
}

// NewOverdueScanWorker creates a scan worker over the given repository.
func NewOverdueScanWorker(deals domain.CommissionRepository, clock domain.Clock) *OverdueScanWorker {
	return &OverdueScanWorker{deals: deals, clock: clock}
}

// Work lists pending deals and logs each one that is effectively overdue.
func (w *OverdueScanWorker) Work(ctx context.Context, job *river.Job[OverdueScanArgs]) error {
	pending := domain.DealPending
	deals, err := w.deals.List(ctx, domain.DealFilter{Status: &pending})
	if err != nil {
		return fmt.Errorf("listing pending deals: %w", err)
	}

	now := w.clock.Now()
	overdue := 0
	for _, d := range deals {
		if d.EffectiveState(now) != domain.DealOverdue {
			continue
		}
		overdue++
		slog.WarnContext(ctx, "commission overdue",
			"deal_id", d.ID,
			"deal_type", string(d.DealType),
			"commission_amount", d.CommissionAmount(),
			"due_date", d.DueDate,
			"days_overdue", -domain.DaysUntil(d.DueDate, now),
		)
	}

	slog.InfoContext(ctx, "overdue scan complete",
		"pending", len(deals),
		"overdue", overdue,
		"job_id", job.ID,
	)
	return nil
}
