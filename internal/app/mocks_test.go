package app_test

import (
	"context"
	"sync"
	"time"

	"github.com/zithekhosa/propflow/internal/domain"
)

var (
	testNow     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	landlord    = domain.Actor{ID: "landlord-1", Role: domain.RoleLandlord}
	tenantActor = domain.Actor{ID: "tenant-1", Role: domain.RoleTenant}
	agency      = domain.Actor{ID: "agency-1", Role: domain.RoleAgency}
	providerOne = domain.Actor{ID: "provider-1", Role: domain.RoleMaintenance}
	providerTwo = domain.Actor{ID: "provider-2", Role: domain.RoleMaintenance}
)

// fixedClock returns a preset time and can be advanced by tests.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock { return &fixedClock{now: now} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fixedClock) AdvanceDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
}

// tableResolver resolves transitions straight from the rule table, standing
// in for the FSM adapter.
type tableResolver struct{}

func (tableResolver) Resolve(_ context.Context, def domain.Definition, current domain.State, action domain.Action) (domain.State, error) {
	if rule, ok := def.RuleFor(current, action); ok {
		return rule.Dst, nil
	}
	return "", &domain.InvalidActionError{Workflow: def.Name, Action: action, State: current}
}

func testEngine() *domain.Engine {
	return domain.NewEngine(tableResolver{})
}

// capturePublisher records published events.
type capturePublisher struct {
	events []domain.WorkflowEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, event domain.WorkflowEvent) error {
	p.events = append(p.events, event)
	return p.err
}

// mockTenancyRepo is an in-memory TenancyRepository with optimistic
// concurrency, plus an optional one-shot conflict injection to drive the
// service's retry path.
type mockTenancyRepo struct {
	byID         map[string]domain.Tenancy
	conflictOnce bool
}

func newMockTenancyRepo() *mockTenancyRepo {
	return &mockTenancyRepo{byID: make(map[string]domain.Tenancy)}
}

func (r *mockTenancyRepo) Create(_ context.Context, t domain.Tenancy) error {
	r.byID[t.ID] = t
	return nil
}

func (r *mockTenancyRepo) GetByID(_ context.Context, id string) (domain.Tenancy, error) {
	t, ok := r.byID[id]
	if !ok {
		return domain.Tenancy{}, domain.ErrTenancyNotFound
	}
	return t, nil
}

func (r *mockTenancyRepo) List(_ context.Context, filter domain.TenancyFilter) ([]domain.Tenancy, error) {
	var out []domain.Tenancy
	for _, t := range r.byID {
		if filter.Status != nil && t.State != *filter.Status {
			continue
		}
		if filter.PropertyID != "" && t.PropertyID != filter.PropertyID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *mockTenancyRepo) Update(_ context.Context, t domain.Tenancy) error {
	if r.conflictOnce {
		r.conflictOnce = false
		return domain.ErrConflict
	}
	stored, ok := r.byID[t.ID]
	if !ok {
		return domain.ErrTenancyNotFound
	}
	if stored.Version != t.Version-1 {
		return domain.ErrConflict
	}
	r.byID[t.ID] = t
	return nil
}

// mockMaintenanceRepo mirrors mockTenancyRepo for maintenance requests.
type mockMaintenanceRepo struct {
	byID         map[string]domain.MaintenanceRequest
	conflictOnce bool
}

func newMockMaintenanceRepo() *mockMaintenanceRepo {
	return &mockMaintenanceRepo{byID: make(map[string]domain.MaintenanceRequest)}
}

func (r *mockMaintenanceRepo) Create(_ context.Context, m domain.MaintenanceRequest) error {
	r.byID[m.ID] = m
	return nil
}

func (r *mockMaintenanceRepo) GetByID(_ context.Context, id string) (domain.MaintenanceRequest, error) {
	m, ok := r.byID[id]
	if !ok {
		return domain.MaintenanceRequest{}, domain.ErrRequestNotFound
	}
	return m, nil
}

func (r *mockMaintenanceRepo) List(_ context.Context, filter domain.RequestFilter) ([]domain.MaintenanceRequest, error) {
	var out []domain.MaintenanceRequest
	for _, m := range r.byID {
		if filter.Status != nil && m.State != *filter.Status {
			continue
		}
		if filter.PropertyID != "" && m.PropertyID != filter.PropertyID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *mockMaintenanceRepo) Update(_ context.Context, m domain.MaintenanceRequest) error {
	if r.conflictOnce {
		r.conflictOnce = false
		return domain.ErrConflict
	}
	stored, ok := r.byID[m.ID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if stored.Version != m.Version-1 {
		return domain.ErrConflict
	}
	r.byID[m.ID] = m
	return nil
}

// mockCommissionRepo mirrors mockTenancyRepo for commission deals.
type mockCommissionRepo struct {
	byID map[string]domain.CommissionDeal
}

func newMockCommissionRepo() *mockCommissionRepo {
	return &mockCommissionRepo{byID: make(map[string]domain.CommissionDeal)}
}

func (r *mockCommissionRepo) Create(_ context.Context, d domain.CommissionDeal) error {
	r.byID[d.ID] = d
	return nil
}

func (r *mockCommissionRepo) GetByID(_ context.Context, id string) (domain.CommissionDeal, error) {
	d, ok := r.byID[id]
	if !ok {
		return domain.CommissionDeal{}, domain.ErrDealNotFound
	}
	return d, nil
}

func (r *mockCommissionRepo) List(_ context.Context, filter domain.DealFilter) ([]domain.CommissionDeal, error) {
	var out []domain.CommissionDeal
	for _, d := range r.byID {
		if filter.Status != nil && d.State != *filter.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *mockCommissionRepo) Update(_ context.Context, d domain.CommissionDeal) error {
	stored, ok := r.byID[d.ID]
	if !ok {
		return domain.ErrDealNotFound
	}
	if stored.Version != d.Version-1 {
		return domain.ErrConflict
	}
	r.byID[d.ID] = d
	return nil
}
