package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zithekhosa/propflow/internal/app"
	"github.com/zithekhosa/propflow/internal/domain"
)

// BidResponse is the API representation of one provider bid.
type BidResponse struct {
	ProviderID  string  `json:"provider_id" doc:"Bidding provider"`
	Amount      float64 `json:"amount" doc:"Offered price"`
	Message     string  `json:"message,omitempty" doc:"Optional note to the owner"`
	SubmittedAt string  `json:"submitted_at" doc:"When the bid was placed (ISO 8601)"`
	Accepted    bool    `json:"accepted" doc:"Whether this bid was accepted"`
}

// MaintenanceResponse is the API representation of a maintenance request.
type MaintenanceResponse struct {
	ID                string                 `json:"id" doc:"Unique identifier"`
	PropertyID        string                 `json:"property_id" doc:"Property needing work"`
	TenantID          string                 `json:"tenant_id" doc:"Reporting tenant"`
	Category          string                 `json:"category" doc:"Kind of work (plumbing, electrical, ...)"`
	Priority          string                 `json:"priority" doc:"Urgency level"`
	IsEmergency       bool                   `json:"is_emergency" doc:"Emergency flag"`
	EstimatedCost     float64                `json:"estimated_cost" doc:"Owner's cost estimate"`
	PaymentPreference string                 `json:"payment_preference" doc:"Who pays for the work"`
	Status            string                 `json:"status" doc:"Lifecycle state"`
	Bids              []BidResponse          `json:"bids" doc:"Bids received, in submission order"`
	CreatedAt         string                 `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	Version           int                    `json:"version" doc:"Optimistic-concurrency version"`
	History           []HistoryEntryResponse `json:"history,omitempty" doc:"Applied transitions, oldest first"`
}

func toMaintenanceResponse(m domain.MaintenanceRequest) MaintenanceResponse {
	bids := make([]BidResponse, len(m.Bids))
	for i, b := range m.Bids {
		bids[i] = BidResponse{
			ProviderID:  b.ProviderID,
			Amount:      b.Amount,
			Message:     b.Message,
			SubmittedAt: b.SubmittedAt.Format(timeFormat),
			Accepted:    b.Accepted,
		}
	}
	return MaintenanceResponse{
		ID:                m.ID,
		PropertyID:        m.PropertyID,
		TenantID:          m.TenantID,
		Category:          m.Category,
		Priority:          string(m.Priority),
		IsEmergency:       m.IsEmergency,
		EstimatedCost:     m.EstimatedCost,
		PaymentPreference: string(m.PaymentPreference),
		Status:            string(m.State),
		Bids:              bids,
		CreatedAt:         m.CreatedAt.Format(timeFormat),
		Version:           m.Version,
		History:           toHistoryResponse(m.History),
	}
}

type CreateRequestInput struct {
	ActorParams
	Body struct {
		PropertyID        string  `json:"property_id" minLength:"1" doc:"Property needing work"`
		TenantID          string  `json:"tenant_id" minLength:"1" doc:"Reporting tenant"`
		Category          string  `json:"category" minLength:"1" doc:"Kind of work"`
		Priority          string  `json:"priority" enum:"low,medium,high,urgent" doc:"Urgency level"`
		IsEmergency       bool    `json:"is_emergency,omitempty" doc:"Emergency flag"`
		EstimatedCost     float64 `json:"estimated_cost" minimum:"0" doc:"Owner's cost estimate"`
		PaymentPreference string  `json:"payment_preference" enum:"landlord,tenant" doc:"Who pays for the work"`
	}
}

type MaintenanceOutput struct {
	Body MaintenanceResponse
}

type GetRequestInput struct {
	ID string `path:"id" doc:"Request ID"`
}

type ListRequestsInput struct {
	Status     string `query:"status" required:"false" enum:"submitted,open_for_bids,bid_accepted,in_progress,completed,cancelled" doc:"Filter by state"`
	PropertyID string `query:"property_id" required:"false" doc:"Filter by property"`
	Limit      int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListRequestsOutput struct {
	Body []MaintenanceResponse
}

type RequestActionInput struct {
	ActorParams
	ID string `path:"id" doc:"Request ID"`
}

type SubmitBidInput struct {
	ActorParams
	ID   string `path:"id" doc:"Request ID"`
	Body struct {
		Amount  float64 `json:"amount" minimum:"0" doc:"Offered price"`
		Message string  `json:"message,omitempty" doc:"Optional note to the owner"`
	}
}

type AcceptBidInput struct {
	ActorParams
	ID         string `path:"id" doc:"Request ID"`
	ProviderID string `path:"provider_id" doc:"Provider whose bid to accept"`
}

type CancelRequestInput struct {
	ActorParams
	ID   string `path:"id" doc:"Request ID"`
	Body struct {
		Reason string `json:"reason,omitempty" doc:"Why the request is cancelled"`
	}
}

func registerMaintenance(api huma.API, svcs Services) {
	svc := svcs.Maintenance

	huma.Register(api, huma.Operation{
		OperationID: "create-maintenance-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance-requests",
		Summary:     "Report a maintenance problem",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *CreateRequestInput) (*MaintenanceOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		request, err := svc.Create(ctx, app.CreateRequestInput{
			PropertyID:        input.Body.PropertyID,
			TenantID:          input.Body.TenantID,
			Category:          input.Body.Category,
			Priority:          domain.Priority(input.Body.Priority),
			IsEmergency:       input.Body.IsEmergency,
			EstimatedCost:     input.Body.EstimatedCost,
			PaymentPreference: domain.PaymentPreference(input.Body.PaymentPreference),
		}, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-maintenance-request",
		Method:      http.MethodGet,
		Path:        "/api/v1/maintenance-requests/{id}",
		Summary:     "Get a maintenance request by ID",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *GetRequestInput) (*MaintenanceOutput, error) {
		request, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-maintenance-requests",
		Method:      http.MethodGet,
		Path:        "/api/v1/maintenance-requests",
		Summary:     "List maintenance requests",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *ListRequestsInput) (*ListRequestsOutput, error) {
		filter := domain.RequestFilter{
			PropertyID: input.PropertyID,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Status != "" {
			s := domain.State(input.Status)
			filter.Status = &s
		}

		requests, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]MaintenanceResponse, len(requests))
		for i, m := range requests {
			resp[i] = toMaintenanceResponse(m)
		}
		return &ListRequestsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "publish-maintenance-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance-requests/{id}/publication",
		Summary:     "Open a request for bids",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *RequestActionInput) (*MaintenanceOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		request, err := svc.Publish(ctx, input.ID, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-maintenance-bid",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance-requests/{id}/bids",
		Summary:     "Bid on an open request",
		Description: "The acting provider is the bidder; one bid per provider per request.",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *SubmitBidInput) (*MaintenanceOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		request, err := svc.SubmitBid(ctx, input.ID, actor, input.Body.Amount, input.Body.Message)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-maintenance-bid",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance-requests/{id}/bids/{provider_id}/acceptance",
		Summary:     "Accept one bid",
		Description: "Accepting marks the chosen bid and implicitly rejects the rest.",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *AcceptBidInput) (*MaintenanceOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		request, err := svc.AcceptBid(ctx, input.ID, input.ProviderID, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-maintenance-work",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance-requests/{id}/start",
		Summary:     "Start the accepted work",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *RequestActionInput) (*MaintenanceOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		request, err := svc.Start(ctx, input.ID, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-maintenance-work",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance-requests/{id}/completion",
		Summary:     "Mark the work complete",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *RequestActionInput) (*MaintenanceOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		request, err := svc.Complete(ctx, input.ID, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-maintenance-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance-requests/{id}/cancellation",
		Summary:     "Cancel a request",
		Tags:        []string{"Maintenance"},
	}, func(ctx context.Context, input *CancelRequestInput) (*MaintenanceOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		request, err := svc.Cancel(ctx, input.ID, actor, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MaintenanceOutput{Body: toMaintenanceResponse(request)}, nil
	})
}
