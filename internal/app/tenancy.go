package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zithekhosa/propflow/internal/domain"
)

// TenancyService orchestrates the tenancy lifecycle: load, validate the
// transition through the engine, persist with a compare-and-swap, publish.
type TenancyService struct {
	repo      domain.TenancyRepository
	publisher domain.EventPublisher
	engine    *domain.Engine
	policy    domain.NoticePolicy
	clock     domain.Clock
}

// NewTenancyService creates a service with the given adapters and notice
// policy table.
func NewTenancyService(repo domain.TenancyRepository, publisher domain.EventPublisher, engine *domain.Engine, policy domain.NoticePolicy, clock domain.Clock) *TenancyService {
	return &TenancyService{
		repo:      repo,
		publisher: publisher,
		engine:    engine,
		policy:    policy,
		clock:     clock,
	}
}

// CreateTenancyInput carries the fields of a newly signed lease.
type CreateTenancyInput struct {
	TenantID   string
	PropertyID string
	LeaseStart time.Time
	LeaseEnd   time.Time
	RentAmount float64
}

// Create persists a new active tenancy and publishes a creation event.
func (s *TenancyService) Create(ctx context.Context, in CreateTenancyInput, actor domain.Actor) (domain.Tenancy, error) {
	now := s.clock.Now()
	tenancy := domain.NewTenancy(newID(), in.TenantID, in.PropertyID, in.LeaseStart, in.LeaseEnd, in.RentAmount, actor, now)

	if err := s.repo.Create(ctx, tenancy); err != nil {
		return domain.Tenancy{}, fmt.Errorf("creating tenancy: %w", err)
	}

	if err := s.publish(ctx, "created", tenancy, actor, now); err != nil {
		return domain.Tenancy{}, err
	}

	return tenancy, nil
}

// GetByID returns a tenancy by its unique identifier.
func (s *TenancyService) GetByID(ctx context.Context, id string) (domain.Tenancy, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns tenancies matching the given filter.
func (s *TenancyService) List(ctx context.Context, filter domain.TenancyFilter) ([]domain.Tenancy, error) {
	return s.repo.List(ctx, filter)
}

// IssueNotice moves an active tenancy into notice_given, deriving the expiry
// from the policy table. A second notice without an intervening return to
// active fails with ErrAlreadyInNotice rather than silently overwriting.
func (s *TenancyService) IssueNotice(ctx context.Context, id string, reason domain.NoticeReason, actor domain.Actor) (domain.Tenancy, error) {
	return s.mutate(ctx, id, func(t domain.Tenancy) (domain.Tenancy, domain.Action, error) {
		if t.State == domain.TenancyNoticeGiven {
			return domain.Tenancy{}, "", domain.ErrAlreadyInNotice
		}

		now := s.clock.Now()
		expiresAt, err := s.policy.ExpiryFrom(reason, now)
		if err != nil {
			return domain.Tenancy{}, "", err
		}

		inst, err := s.engine.Attempt(ctx, domain.TenancyWorkflow, t, t.Instance, domain.AttemptRequest{
			Action: domain.ActionIssueNotice,
			Actor:  actor,
			Now:    now,
			Note:   string(reason),
		})
		if err != nil {
			return domain.Tenancy{}, "", err
		}

		t = t.WithNotice(reason, now, expiresAt)
		t.Instance = inst
		return t, domain.ActionIssueNotice, nil
	}, actor)
}

// Remove terminates a tenancy. Involuntary removal is guarded by the notice
// period; voluntary departure terminates immediately.
func (s *TenancyService) Remove(ctx context.Context, id string, voluntary bool, actor domain.Actor) (domain.Tenancy, error) {
	return s.mutate(ctx, id, func(t domain.Tenancy) (domain.Tenancy, domain.Action, error) {
		note := "involuntary"
		if voluntary {
			note = "voluntary"
		}

		inst, err := s.engine.Attempt(ctx, domain.TenancyWorkflow, t, t.Instance, domain.AttemptRequest{
			Action:  domain.ActionRemove,
			Actor:   actor,
			Now:     s.clock.Now(),
			Note:    note,
			Payload: domain.RemovalPayload{Voluntary: voluntary},
		})
		if err != nil {
			return domain.Tenancy{}, "", err
		}

		t.Instance = inst
		return t, domain.ActionRemove, nil
	}, actor)
}

// mutate runs a transition against a freshly loaded tenancy and persists the
// result. On an optimistic-concurrency conflict it reloads and retries once
// before surfacing ErrConflict to the caller.
func (s *TenancyService) mutate(ctx context.Context, id string, fn func(domain.Tenancy) (domain.Tenancy, domain.Action, error), actor domain.Actor) (domain.Tenancy, error) {
	for attempt := 0; ; attempt++ {
		tenancy, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return domain.Tenancy{}, err
		}

		next, action, err := fn(tenancy)
		if err != nil {
			return domain.Tenancy{}, err
		}

		if err := s.repo.Update(ctx, next); err != nil {
			if errors.Is(err, domain.ErrConflict) && attempt == 0 {
				continue
			}
			return domain.Tenancy{}, fmt.Errorf("updating tenancy: %w", err)
		}

		if err := s.publish(ctx, action, next, actor, s.clock.Now()); err != nil {
			return domain.Tenancy{}, err
		}
		return next, nil
	}
}

func (s *TenancyService) publish(ctx context.Context, action domain.Action, t domain.Tenancy, actor domain.Actor, at time.Time) error {
	err := s.publisher.Publish(ctx, domain.WorkflowEvent{
		Workflow:   domain.TenancyWorkflow.Name,
		Action:     action,
		InstanceID: t.ID,
		State:      t.State,
		Actor:      actor,
		At:         at,
	})
	if err != nil {
		return fmt.Errorf("publishing tenancy event %q: %w", action, err)
	}
	return nil
}
