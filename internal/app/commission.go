package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zithekhosa/propflow/internal/domain"
)

// CommissionService orchestrates the commission-deal ledger. The stored
// state is only ever pending or paid; overdue is derived per read through
// Effective.
type CommissionService struct {
	repo      domain.CommissionRepository
	publisher domain.EventPublisher
	engine    *domain.Engine
	clock     domain.Clock
}

// NewCommissionService creates a service with the given adapters.
func NewCommissionService(repo domain.CommissionRepository, publisher domain.EventPublisher, engine *domain.Engine, clock domain.Clock) *CommissionService {
	return &CommissionService{
		repo:      repo,
		publisher: publisher,
		engine:    engine,
		clock:     clock,
	}
}

// CreateDealInput carries the fields of a new commission deal. For lease
// deals, DealValue must be the annualized lease value; callers holding a
// monthly rent multiply by 12 before calling.
type CreateDealInput struct {
	DealType       domain.DealType
	DealValue      float64
	CommissionRate float64
	ClosingDate    time.Time
	DueDate        time.Time
}

// Create persists a new pending deal and publishes a creation event.
func (s *CommissionService) Create(ctx context.Context, in CreateDealInput, actor domain.Actor) (domain.CommissionDeal, error) {
	now := s.clock.Now()
	deal, err := domain.NewCommissionDeal(newID(), in.DealType, in.DealValue, in.CommissionRate, in.ClosingDate, in.DueDate, actor, now)
	if err != nil {
		return domain.CommissionDeal{}, err
	}

	if err := s.repo.Create(ctx, deal); err != nil {
		return domain.CommissionDeal{}, fmt.Errorf("creating commission deal: %w", err)
	}

	if err := s.publish(ctx, "created", deal, actor, now); err != nil {
		return domain.CommissionDeal{}, err
	}

	return deal, nil
}

// GetByID returns a deal by its unique identifier.
func (s *CommissionService) GetByID(ctx context.Context, id string) (domain.CommissionDeal, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns deals matching the given filter.
func (s *CommissionService) List(ctx context.Context, filter domain.DealFilter) ([]domain.CommissionDeal, error) {
	return s.repo.List(ctx, filter)
}

// Effective derives the deal's read-time state from the service clock.
func (s *CommissionService) Effective(d domain.CommissionDeal) domain.State {
	return d.EffectiveState(s.clock.Now())
}

// DaysUntilDue returns the signed days until the deal's due date.
func (s *CommissionService) DaysUntilDue(d domain.CommissionDeal) int {
	return domain.DaysUntil(d.DueDate, s.clock.Now())
}

// MarkPaid settles a pending (including effectively overdue) deal and
// records the payment date. Paid is terminal.
func (s *CommissionService) MarkPaid(ctx context.Context, id string, actor domain.Actor) (domain.CommissionDeal, error) {
	for attempt := 0; ; attempt++ {
		deal, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return domain.CommissionDeal{}, err
		}

		now := s.clock.Now()
		inst, err := s.engine.Attempt(ctx, domain.CommissionWorkflow, deal, deal.Instance, domain.AttemptRequest{
			Action: domain.ActionMarkPaid,
			Actor:  actor,
			Now:    now,
		})
		if err != nil {
			return domain.CommissionDeal{}, err
		}

		next := deal.WithPayment(now)
		next.Instance = inst

		if err := s.repo.Update(ctx, next); err != nil {
			if errors.Is(err, domain.ErrConflict) && attempt == 0 {
				continue
			}
			return domain.CommissionDeal{}, fmt.Errorf("updating commission deal: %w", err)
		}

		if err := s.publish(ctx, domain.ActionMarkPaid, next, actor, now); err != nil {
			return domain.CommissionDeal{}, err
		}
		return next, nil
	}
}

func (s *CommissionService) publish(ctx context.Context, action domain.Action, d domain.CommissionDeal, actor domain.Actor, at time.Time) error {
	err := s.publisher.Publish(ctx, domain.WorkflowEvent{
		Workflow:   domain.CommissionWorkflow.Name,
		Action:     action,
		InstanceID: d.ID,
		State:      d.State,
		Actor:      actor,
		At:         at,
	})
	if err != nil {
		return fmt.Errorf("publishing commission event %q: %w", action, err)
	}
	return nil
}
