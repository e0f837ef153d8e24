package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zithekhosa/propflow/internal/domain"
)

// MaintenanceService orchestrates the maintenance-request marketplace:
// publishing, competitive bidding, exclusive acceptance, and execution.
type MaintenanceService struct {
	repo      domain.MaintenanceRepository
	publisher domain.EventPublisher
	engine    *domain.Engine
	clock     domain.Clock
	bidCap    float64 // 0 disables cap enforcement
}

// NewMaintenanceService creates a service with the given adapters. bidCap
// caps bid amounts when positive; zero leaves bidding uncapped.
func NewMaintenanceService(repo domain.MaintenanceRepository, publisher domain.EventPublisher, engine *domain.Engine, clock domain.Clock, bidCap float64) *MaintenanceService {
	return &MaintenanceService{
		repo:      repo,
		publisher: publisher,
		engine:    engine,
		clock:     clock,
		bidCap:    bidCap,
	}
}

// CreateRequestInput carries the fields of a new maintenance request.
type CreateRequestInput struct {
	PropertyID        string
	TenantID          string
	Category          string
	Priority          domain.Priority
	IsEmergency       bool
	EstimatedCost     float64
	PaymentPreference domain.PaymentPreference
}

// Create persists a new submitted request and publishes a creation event.
func (s *MaintenanceService) Create(ctx context.Context, in CreateRequestInput, actor domain.Actor) (domain.MaintenanceRequest, error) {
	now := s.clock.Now()
	request := domain.NewMaintenanceRequest(newID(), in.PropertyID, in.TenantID, in.Category, in.Priority, in.IsEmergency, in.EstimatedCost, in.PaymentPreference, actor, now)

	if err := s.repo.Create(ctx, request); err != nil {
		return domain.MaintenanceRequest{}, fmt.Errorf("creating maintenance request: %w", err)
	}

	if err := s.publish(ctx, "created", request, actor, now); err != nil {
		return domain.MaintenanceRequest{}, err
	}

	return request, nil
}

// GetByID returns a request by its unique identifier.
func (s *MaintenanceService) GetByID(ctx context.Context, id string) (domain.MaintenanceRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns requests matching the given filter.
func (s *MaintenanceService) List(ctx context.Context, filter domain.RequestFilter) ([]domain.MaintenanceRequest, error) {
	return s.repo.List(ctx, filter)
}

// Publish opens a submitted request for bids.
func (s *MaintenanceService) Publish(ctx context.Context, id string, actor domain.Actor) (domain.MaintenanceRequest, error) {
	return s.transition(ctx, id, domain.ActionPublish, actor, nil, "")
}

// SubmitBid records a provider's offer on an open request. The provider is
// the actor; one bid per provider per request. Once any bid has been
// accepted, further bids fail with bidding_closed regardless of state.
func (s *MaintenanceService) SubmitBid(ctx context.Context, id string, actor domain.Actor, amount float64, message string) (domain.MaintenanceRequest, error) {
	return s.mutate(ctx, id, domain.ActionSubmitBid, actor, func(m domain.MaintenanceRequest) (domain.MaintenanceRequest, error) {
		// A request that already left open_for_bids because a bid was
		// accepted reads as closed bidding, not as an undefined action.
		if _, accepted := m.AcceptedBid(); accepted {
			return domain.MaintenanceRequest{}, &domain.GuardError{
				Reason: domain.GuardBiddingClosed,
				Detail: "a bid has already been accepted",
			}
		}

		now := s.clock.Now()
		inst, err := s.engine.Attempt(ctx, domain.MaintenanceWorkflow, m, m.Instance, domain.AttemptRequest{
			Action: domain.ActionSubmitBid,
			Actor:  actor,
			Now:    now,
			Note:   fmt.Sprintf("bid from %s", actor.ID),
			Payload: domain.BidPayload{
				ProviderID: actor.ID,
				Amount:     amount,
				Message:    message,
				Cap:        s.bidCap,
			},
		})
		if err != nil {
			return domain.MaintenanceRequest{}, err
		}

		m = m.WithBid(domain.Bid{
			ProviderID:  actor.ID,
			Amount:      amount,
			Message:     message,
			SubmittedAt: now,
		})
		m.Instance = inst
		return m, nil
	})
}

// AcceptBid marks exactly one bid accepted and moves the request to
// bid_accepted. All other bids become implicitly rejected; a second accept
// fails with already_accepted.
func (s *MaintenanceService) AcceptBid(ctx context.Context, id, providerID string, actor domain.Actor) (domain.MaintenanceRequest, error) {
	return s.mutate(ctx, id, domain.ActionAcceptBid, actor, func(m domain.MaintenanceRequest) (domain.MaintenanceRequest, error) {
		// A request that already carries an accepted bid reads as
		// already_accepted, not as an undefined action.
		if winner, accepted := m.AcceptedBid(); accepted {
			return domain.MaintenanceRequest{}, &domain.GuardError{
				Reason: domain.GuardAlreadyAccepted,
				Detail: fmt.Sprintf("bid from %q was already accepted", winner.ProviderID),
			}
		}

		inst, err := s.engine.Attempt(ctx, domain.MaintenanceWorkflow, m, m.Instance, domain.AttemptRequest{
			Action:  domain.ActionAcceptBid,
			Actor:   actor,
			Now:     s.clock.Now(),
			Note:    fmt.Sprintf("accepted bid from %s", providerID),
			Payload: domain.AcceptBidPayload{ProviderID: providerID},
		})
		if err != nil {
			return domain.MaintenanceRequest{}, err
		}

		m = m.WithAcceptedBid(providerID)
		m.Instance = inst
		return m, nil
	})
}

// Start moves an accepted request into execution; only the accepted
// provider may start.
func (s *MaintenanceService) Start(ctx context.Context, id string, actor domain.Actor) (domain.MaintenanceRequest, error) {
	return s.transition(ctx, id, domain.ActionStart, actor, nil, "")
}

// Complete finishes the work; only the accepted provider may complete.
func (s *MaintenanceService) Complete(ctx context.Context, id string, actor domain.Actor) (domain.MaintenanceRequest, error) {
	return s.transition(ctx, id, domain.ActionComplete, actor, nil, "")
}

// Cancel aborts a request from any pre-terminal state.
func (s *MaintenanceService) Cancel(ctx context.Context, id string, actor domain.Actor, reason string) (domain.MaintenanceRequest, error) {
	return s.transition(ctx, id, domain.ActionCancel, actor, nil, reason)
}

// transition applies a plain engine transition with no entity bookkeeping.
func (s *MaintenanceService) transition(ctx context.Context, id string, action domain.Action, actor domain.Actor, payload any, note string) (domain.MaintenanceRequest, error) {
	return s.mutate(ctx, id, action, actor, func(m domain.MaintenanceRequest) (domain.MaintenanceRequest, error) {
		inst, err := s.engine.Attempt(ctx, domain.MaintenanceWorkflow, m, m.Instance, domain.AttemptRequest{
			Action:  action,
			Actor:   actor,
			Now:     s.clock.Now(),
			Note:    note,
			Payload: payload,
		})
		if err != nil {
			return domain.MaintenanceRequest{}, err
		}
		m.Instance = inst
		return m, nil
	})
}

// mutate runs a transition against a freshly loaded request and persists the
// result, reloading and retrying once on an optimistic-concurrency conflict.
// This retry is what keeps at-most-one-accepted-bid intact under races: the
// second accept reloads, sees the accepted bid, and is rejected by the guard.
func (s *MaintenanceService) mutate(ctx context.Context, id string, action domain.Action, actor domain.Actor, fn func(domain.MaintenanceRequest) (domain.MaintenanceRequest, error)) (domain.MaintenanceRequest, error) {
	for attempt := 0; ; attempt++ {
		request, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return domain.MaintenanceRequest{}, err
		}

		next, err := fn(request)
		if err != nil {
			return domain.MaintenanceRequest{}, err
		}

		if err := s.repo.Update(ctx, next); err != nil {
			if errors.Is(err, domain.ErrConflict) && attempt == 0 {
				continue
			}
			return domain.MaintenanceRequest{}, fmt.Errorf("updating maintenance request: %w", err)
		}

		if err := s.publish(ctx, action, next, actor, s.clock.Now()); err != nil {
			return domain.MaintenanceRequest{}, err
		}
		return next, nil
	}
}

func (s *MaintenanceService) publish(ctx context.Context, action domain.Action, m domain.MaintenanceRequest, actor domain.Actor, at time.Time) error {
	err := s.publisher.Publish(ctx, domain.WorkflowEvent{
		Workflow:   domain.MaintenanceWorkflow.Name,
		Action:     action,
		InstanceID: m.ID,
		State:      m.State,
		Actor:      actor,
		At:         at,
	})
	if err != nil {
		return fmt.Errorf("publishing maintenance event %q: %w", action, err)
	}
	return nil
}
