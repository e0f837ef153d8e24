package domain

import (
	"context"
	"time"
)

// TenancyRepository defines the persistence contract for tenancies.
// Update must fail with ErrConflict when the stored version does not match
// the incoming instance's predecessor, so concurrent transitions serialize.
type TenancyRepository interface {
	Create(ctx context.Context, t Tenancy) error
	GetByID(ctx context.Context, id string) (Tenancy, error)
	List(ctx context.Context, filter TenancyFilter) ([]Tenancy, error)
	Update(ctx context.Context, t Tenancy) error
}

// MaintenanceRepository defines the persistence contract for maintenance
// requests, including their bid sets.
type MaintenanceRepository interface {
	Create(ctx context.Context, m MaintenanceRequest) error
	GetByID(ctx context.Context, id string) (MaintenanceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]MaintenanceRequest, error)
	Update(ctx context.Context, m MaintenanceRequest) error
}

// CommissionRepository defines the persistence contract for commission
// deals. Implementations must only ever store pending or paid.
type CommissionRepository interface {
	Create(ctx context.Context, d CommissionDeal) error
	GetByID(ctx context.Context, id string) (CommissionDeal, error)
	List(ctx context.Context, filter DealFilter) ([]CommissionDeal, error)
	Update(ctx context.Context, d CommissionDeal) error
}

// TenancyFilter holds optional criteria for listing tenancies.
type TenancyFilter struct {
	Status     *State
	PropertyID string
	Limit      int
	Offset     int
}

// RequestFilter holds optional criteria for listing maintenance requests.
type RequestFilter struct {
	Status     *State
	PropertyID string
	Limit      int
	Offset     int
}

// DealFilter holds optional criteria for listing commission deals. Status
// filters on the stored state; overdue filtering happens at read time.
type DealFilter struct {
	Status *State
	Limit  int
	Offset int
}

// WorkflowEvent describes one applied transition for downstream consumers.
type WorkflowEvent struct {
	Workflow   string
	Action     Action
	InstanceID string
	State      State
	Actor      Actor
	At         time.Time
}

// EventPublisher defines the contract for emitting workflow events.
type EventPublisher interface {
	Publish(ctx context.Context, event WorkflowEvent) error
}

// TransitionResolver answers whether an action is defined for a state and
// where it leads. A miss is an *InvalidActionError.
type TransitionResolver interface {
	Resolve(ctx context.Context, def Definition, current State, action Action) (State, error)
}

// Clock supplies the current time. Pure functions take now explicitly; the
// app layer reads it from this port so tests can simulate arbitrary times.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
