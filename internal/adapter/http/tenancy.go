package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zithekhosa/propflow/internal/app"
	"github.com/zithekhosa/propflow/internal/domain"
)

// TenancyResponse is the API representation of a tenancy.
type TenancyResponse struct {
	ID              string                 `json:"id" doc:"Unique identifier"`
	TenantID        string                 `json:"tenant_id" doc:"Tenant on the lease"`
	PropertyID      string                 `json:"property_id" doc:"Leased property"`
	LeaseStart      string                 `json:"lease_start" doc:"Lease start date (ISO 8601)"`
	LeaseEnd        string                 `json:"lease_end" doc:"Lease end date (ISO 8601)"`
	RentAmount      float64                `json:"rent_amount" doc:"Monthly rent"`
	Status          string                 `json:"status" doc:"Lifecycle state"`
	NoticeReason    string                 `json:"notice_reason,omitempty" doc:"Eviction reason when under notice"`
	NoticeIssuedAt  string                 `json:"notice_issued_at,omitempty" doc:"When the notice was issued"`
	NoticeExpiresAt string                 `json:"notice_expires_at,omitempty" doc:"When the notice period ends"`
	NoticeDaysLeft  int                    `json:"notice_days_left" doc:"Whole days until notice expiry, clamped to zero"`
	CreatedAt       string                 `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	Version         int                    `json:"version" doc:"Optimistic-concurrency version"`
	History         []HistoryEntryResponse `json:"history,omitempty" doc:"Applied transitions, oldest first"`
}

func toTenancyResponse(t domain.Tenancy, now time.Time) TenancyResponse {
	resp := TenancyResponse{
		ID:         t.ID,
		TenantID:   t.TenantID,
		PropertyID: t.PropertyID,
		LeaseStart: t.LeaseStart.Format(timeFormat),
		LeaseEnd:   t.LeaseEnd.Format(timeFormat),
		RentAmount: t.RentAmount,
		Status:     string(t.State),
		CreatedAt:  t.CreatedAt.Format(timeFormat),
		Version:    t.Version,
		History:    toHistoryResponse(t.History),
	}
	if t.State == domain.TenancyNoticeGiven {
		resp.NoticeReason = string(t.NoticeReason)
		resp.NoticeIssuedAt = t.NoticeIssuedAt.Format(timeFormat)
		resp.NoticeExpiresAt = t.NoticeExpiresAt.Format(timeFormat)
		resp.NoticeDaysLeft = domain.DisplayDaysUntil(t.NoticeExpiresAt, now)
	}
	return resp
}

type CreateTenancyInput struct {
	ActorParams
	Body struct {
		TenantID   string  `json:"tenant_id" minLength:"1" doc:"Tenant on the lease"`
		PropertyID string  `json:"property_id" minLength:"1" doc:"Leased property"`
		LeaseStart string  `json:"lease_start" format:"date-time" doc:"Lease start (ISO 8601)"`
		LeaseEnd   string  `json:"lease_end" format:"date-time" doc:"Lease end (ISO 8601)"`
		RentAmount float64 `json:"rent_amount" minimum:"0" doc:"Monthly rent"`
	}
}

type TenancyOutput struct {
	Body TenancyResponse
}

type GetTenancyInput struct {
	ID string `path:"id" doc:"Tenancy ID"`
}

type ListTenanciesInput struct {
	Status     string `query:"status" required:"false" enum:"active,notice_given,terminated" doc:"Filter by state"`
	PropertyID string `query:"property_id" required:"false" doc:"Filter by property"`
	Limit      int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTenanciesOutput struct {
	Body []TenancyResponse
}

type IssueNoticeInput struct {
	ActorParams
	ID   string `path:"id" doc:"Tenancy ID"`
	Body struct {
		Reason string `json:"reason" enum:"non_payment,lease_violation,property_damage,illegal_activity,end_of_lease,owner_occupation" doc:"Eviction reason; determines the notice period"`
	}
}

type RemoveTenancyInput struct {
	ActorParams
	ID   string `path:"id" doc:"Tenancy ID"`
	Body struct {
		Voluntary bool `json:"voluntary" doc:"Tenant leaves by mutual agreement; skips the notice-period guard"`
	}
}

func registerTenancies(api huma.API, svcs Services) {
	svc := svcs.Tenancies

	huma.Register(api, huma.Operation{
		OperationID: "create-tenancy",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenancies",
		Summary:     "Record a signed lease",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *CreateTenancyInput) (*TenancyOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		leaseStart, err := time.Parse(time.RFC3339, input.Body.LeaseStart)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid lease_start")
		}
		leaseEnd, err := time.Parse(time.RFC3339, input.Body.LeaseEnd)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid lease_end")
		}

		tenancy, err := svc.Create(ctx, app.CreateTenancyInput{
			TenantID:   input.Body.TenantID,
			PropertyID: input.Body.PropertyID,
			LeaseStart: leaseStart,
			LeaseEnd:   leaseEnd,
			RentAmount: input.Body.RentAmount,
		}, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenancyOutput{Body: toTenancyResponse(tenancy, svcs.Clock.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenancy",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenancies/{id}",
		Summary:     "Get a tenancy by ID",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *GetTenancyInput) (*TenancyOutput, error) {
		tenancy, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenancyOutput{Body: toTenancyResponse(tenancy, svcs.Clock.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenancies",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenancies",
		Summary:     "List tenancies",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *ListTenanciesInput) (*ListTenanciesOutput, error) {
		filter := domain.TenancyFilter{
			PropertyID: input.PropertyID,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Status != "" {
			s := domain.State(input.Status)
			filter.Status = &s
		}

		tenancies, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		now := svcs.Clock.Now()
		resp := make([]TenancyResponse, len(tenancies))
		for i, t := range tenancies {
			resp[i] = toTenancyResponse(t, now)
		}
		return &ListTenanciesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "issue-tenancy-notice",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenancies/{id}/notice",
		Summary:     "Issue an eviction notice",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *IssueNoticeInput) (*TenancyOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		tenancy, err := svc.IssueNotice(ctx, input.ID, domain.NoticeReason(input.Body.Reason), actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenancyOutput{Body: toTenancyResponse(tenancy, svcs.Clock.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-tenancy",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenancies/{id}/removal",
		Summary:     "Terminate a tenancy",
		Tags:        []string{"Tenancies"},
	}, func(ctx context.Context, input *RemoveTenancyInput) (*TenancyOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		tenancy, err := svc.Remove(ctx, input.ID, input.Body.Voluntary, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenancyOutput{Body: toTenancyResponse(tenancy, svcs.Clock.Now())}, nil
	})
}
