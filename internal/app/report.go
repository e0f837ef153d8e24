package app

import (
	"context"
	"fmt"

	"github.com/zithekhosa/propflow/internal/domain"
)

// Summary is the dashboard aggregate across all three workflow collections.
// Commission counts use effective states, so overdue shows up here even
// though it is never stored.
type Summary struct {
	TenanciesByState   map[domain.State]int
	RequestsByState    map[domain.State]int
	DealsByState       map[domain.State]int
	ActiveRentTotal    float64
	OpenEstimatedCost  float64
	PendingCommission  float64
	OverdueCommission  float64
	PaidCommission     float64
	NoticePercentage   float64
	BidConversionRate  float64
	OverdueDealPercent float64
}

// ReportService derives reporting values from the current instance
// collections. Everything is recomputed per call; nothing is incrementally
// maintained.
type ReportService struct {
	tenancies domain.TenancyRepository
	requests  domain.MaintenanceRepository
	deals     domain.CommissionRepository
	clock     domain.Clock
}

// NewReportService creates a report service over the given repositories.
func NewReportService(tenancies domain.TenancyRepository, requests domain.MaintenanceRepository, deals domain.CommissionRepository, clock domain.Clock) *ReportService {
	return &ReportService{
		tenancies: tenancies,
		requests:  requests,
		deals:     deals,
		clock:     clock,
	}
}

// Summarize reduces the full collections into a Summary.
func (s *ReportService) Summarize(ctx context.Context) (Summary, error) {
	tenancies, err := s.tenancies.List(ctx, domain.TenancyFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("listing tenancies: %w", err)
	}
	requests, err := s.requests.List(ctx, domain.RequestFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("listing maintenance requests: %w", err)
	}
	deals, err := s.deals.List(ctx, domain.DealFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("listing commission deals: %w", err)
	}

	now := s.clock.Now()

	tenancyState := func(t domain.Tenancy) domain.State { return t.State }
	requestState := func(m domain.MaintenanceRequest) domain.State { return m.State }
	dealState := func(d domain.CommissionDeal) domain.State { return d.EffectiveState(now) }

	tenancyCounts := domain.CountByState(tenancies, tenancyState)
	requestCounts := domain.CountByState(requests, requestState)
	dealCounts := domain.CountByState(deals, dealState)

	commission := func(d domain.CommissionDeal) float64 { return d.CommissionAmount() }

	return Summary{
		TenanciesByState: tenancyCounts,
		RequestsByState:  requestCounts,
		DealsByState:     dealCounts,
		ActiveRentTotal: domain.SumWhere(tenancies, tenancyState, domain.TenancyActive,
			func(t domain.Tenancy) float64 { return t.RentAmount }),
		OpenEstimatedCost: domain.SumWhere(requests, requestState, domain.RequestOpenForBids,
			func(m domain.MaintenanceRequest) float64 { return m.EstimatedCost }),
		PendingCommission:  domain.SumWhere(deals, dealState, domain.DealPending, commission),
		OverdueCommission:  domain.SumWhere(deals, dealState, domain.DealOverdue, commission),
		PaidCommission:     domain.SumWhere(deals, dealState, domain.DealPaid, commission),
		NoticePercentage:   domain.Percentage(tenancyCounts[domain.TenancyNoticeGiven], len(tenancies)),
		BidConversionRate:  domain.BidConversionRate(requests),
		OverdueDealPercent: domain.Percentage(dealCounts[domain.DealOverdue], len(deals)),
	}, nil
}
