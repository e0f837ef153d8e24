package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zithekhosa/propflow/internal/app"
	"github.com/zithekhosa/propflow/internal/domain"
)

// DealResponse is the API representation of a commission deal. Status is
// the stored state; EffectiveStatus folds in overdue at read time.
type DealResponse struct {
	ID               string                 `json:"id" doc:"Unique identifier"`
	DealType         string                 `json:"deal_type" doc:"lease or sale"`
	DealValue        float64                `json:"deal_value" doc:"Total deal value (annualized for leases)"`
	CommissionRate   float64                `json:"commission_rate" doc:"Commission percentage"`
	CommissionAmount float64                `json:"commission_amount" doc:"Derived commission owed"`
	ClosingDate      string                 `json:"closing_date" doc:"When the deal closed (ISO 8601)"`
	DueDate          string                 `json:"due_date" doc:"Payment due date (ISO 8601)"`
	PaymentDate      string                 `json:"payment_date,omitempty" doc:"When payment was recorded"`
	Status           string                 `json:"status" doc:"Stored state: pending or paid"`
	EffectiveStatus  string                 `json:"effective_status" doc:"Read-time state: pending, overdue or paid"`
	DaysUntilDue     int                    `json:"days_until_due" doc:"Signed days until due; negative once overdue"`
	CreatedAt        string                 `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	Version          int                    `json:"version" doc:"Optimistic-concurrency version"`
	History          []HistoryEntryResponse `json:"history,omitempty" doc:"Applied transitions, oldest first"`
}

func toDealResponse(d domain.CommissionDeal, now time.Time) DealResponse {
	resp := DealResponse{
		ID:               d.ID,
		DealType:         string(d.DealType),
		DealValue:        d.DealValue,
		CommissionRate:   d.CommissionRate,
		CommissionAmount: d.CommissionAmount(),
		ClosingDate:      d.ClosingDate.Format(timeFormat),
		DueDate:          d.DueDate.Format(timeFormat),
		Status:           string(d.State),
		EffectiveStatus:  string(d.EffectiveState(now)),
		DaysUntilDue:     domain.DaysUntil(d.DueDate, now),
		CreatedAt:        d.CreatedAt.Format(timeFormat),
		Version:          d.Version,
		History:          toHistoryResponse(d.History),
	}
	if d.PaymentDate != nil {
		resp.PaymentDate = d.PaymentDate.Format(timeFormat)
	}
	return resp
}

type CreateDealInput struct {
	ActorParams
	Body struct {
		DealType       string  `json:"deal_type" enum:"lease,sale" doc:"lease or sale"`
		DealValue      float64 `json:"deal_value" minimum:"0" doc:"Total deal value; annualized for leases"`
		CommissionRate float64 `json:"commission_rate" doc:"Commission percentage, 0.1 to 100"`
		ClosingDate    string  `json:"closing_date" format:"date-time" doc:"When the deal closed (ISO 8601)"`
		DueDate        string  `json:"due_date" format:"date-time" doc:"Payment due date (ISO 8601)"`
	}
}

type DealOutput struct {
	Body DealResponse
}

type GetDealInput struct {
	ID string `path:"id" doc:"Deal ID"`
}

type ListDealsInput struct {
	Status string `query:"status" required:"false" enum:"pending,paid,overdue" doc:"Filter by effective state"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListDealsOutput struct {
	Body []DealResponse
}

type MarkPaidInput struct {
	ActorParams
	ID string `path:"id" doc:"Deal ID"`
}

func registerCommissions(api huma.API, svcs Services) {
	svc := svcs.Commissions

	huma.Register(api, huma.Operation{
		OperationID: "create-commission-deal",
		Method:      http.MethodPost,
		Path:        "/api/v1/commission-deals",
		Summary:     "Record a closed deal",
		Tags:        []string{"Commissions"},
	}, func(ctx context.Context, input *CreateDealInput) (*DealOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		closing, err := time.Parse(time.RFC3339, input.Body.ClosingDate)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid closing_date")
		}
		due, err := time.Parse(time.RFC3339, input.Body.DueDate)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid due_date")
		}

		deal, err := svc.Create(ctx, app.CreateDealInput{
			DealType:       domain.DealType(input.Body.DealType),
			DealValue:      input.Body.DealValue,
			CommissionRate: input.Body.CommissionRate,
			ClosingDate:    closing,
			DueDate:        due,
		}, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DealOutput{Body: toDealResponse(deal, svcs.Clock.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-commission-deal",
		Method:      http.MethodGet,
		Path:        "/api/v1/commission-deals/{id}",
		Summary:     "Get a commission deal by ID",
		Tags:        []string{"Commissions"},
	}, func(ctx context.Context, input *GetDealInput) (*DealOutput, error) {
		deal, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DealOutput{Body: toDealResponse(deal, svcs.Clock.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-commission-deals",
		Method:      http.MethodGet,
		Path:        "/api/v1/commission-deals",
		Summary:     "List commission deals",
		Description: "Filtering by status matches the effective state, so overdue is a valid filter even though it is never stored.",
		Tags:        []string{"Commissions"},
	}, func(ctx context.Context, input *ListDealsInput) (*ListDealsOutput, error) {
		// Effective states do not exist in SQL, so status filtering happens
		// here and paging must be applied after it, not pushed down.
		filter := domain.DealFilter{}
		if input.Status == "" {
			filter.Limit = input.Limit
			filter.Offset = input.Offset
		}

		deals, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		now := svcs.Clock.Now()
		matched := make([]domain.CommissionDeal, 0, len(deals))
		for _, d := range deals {
			if input.Status != "" && string(d.EffectiveState(now)) != input.Status {
				continue
			}
			matched = append(matched, d)
		}
		if input.Status != "" {
			matched = page(matched, input.Limit, input.Offset)
		}

		resp := make([]DealResponse, len(matched))
		for i, d := range matched {
			resp[i] = toDealResponse(d, now)
		}
		return &ListDealsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pay-commission-deal",
		Method:      http.MethodPost,
		Path:        "/api/v1/commission-deals/{id}/payment",
		Summary:     "Record the commission payment",
		Tags:        []string{"Commissions"},
	}, func(ctx context.Context, input *MarkPaidInput) (*DealOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		deal, err := svc.MarkPaid(ctx, input.ID, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DealOutput{Body: toDealResponse(deal, svcs.Clock.Now())}, nil
	})
}
