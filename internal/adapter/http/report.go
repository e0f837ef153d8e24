package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zithekhosa/propflow/internal/app"
)

// SummaryResponse is the dashboard aggregate. Counts keyed by state name;
// commission buckets use effective states.
type SummaryResponse struct {
	TenanciesByState   map[string]int `json:"tenancies_by_state" doc:"Tenancy count per state"`
	RequestsByState    map[string]int `json:"requests_by_state" doc:"Maintenance request count per state"`
	DealsByState       map[string]int `json:"deals_by_state" doc:"Deal count per effective state"`
	ActiveRentTotal    float64        `json:"active_rent_total" doc:"Sum of rent across active tenancies"`
	OpenEstimatedCost  float64        `json:"open_estimated_cost" doc:"Estimated cost across requests open for bids"`
	PendingCommission  float64        `json:"pending_commission" doc:"Commission owed on pending deals"`
	OverdueCommission  float64        `json:"overdue_commission" doc:"Commission owed on overdue deals"`
	PaidCommission     float64        `json:"paid_commission" doc:"Commission collected"`
	NoticePercentage   float64        `json:"notice_percentage" doc:"Share of tenancies under notice"`
	BidConversionRate  float64        `json:"bid_conversion_rate" doc:"Share of published requests that reached acceptance"`
	OverdueDealPercent float64        `json:"overdue_deal_percent" doc:"Share of deals effectively overdue"`
}

func toSummaryResponse(s app.Summary) SummaryResponse {
	return SummaryResponse{
		TenanciesByState:   stateCounts(s.TenanciesByState),
		RequestsByState:    stateCounts(s.RequestsByState),
		DealsByState:       stateCounts(s.DealsByState),
		ActiveRentTotal:    s.ActiveRentTotal,
		OpenEstimatedCost:  s.OpenEstimatedCost,
		PendingCommission:  s.PendingCommission,
		OverdueCommission:  s.OverdueCommission,
		PaidCommission:     s.PaidCommission,
		NoticePercentage:   s.NoticePercentage,
		BidConversionRate:  s.BidConversionRate,
		OverdueDealPercent: s.OverdueDealPercent,
	}
}

func stateCounts[K ~string](counts map[K]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[string(k)] = v
	}
	return out
}

type SummaryOutput struct {
	Body SummaryResponse
}

func registerReports(api huma.API, svcs Services) {
	huma.Register(api, huma.Operation{
		OperationID: "get-summary-report",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/summary",
		Summary:     "Portfolio summary",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, _ *struct{}) (*SummaryOutput, error) {
		summary, err := svcs.Reports.Summarize(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SummaryOutput{Body: toSummaryResponse(summary)}, nil
	})
}
