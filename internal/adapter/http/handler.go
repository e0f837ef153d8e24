package http

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zithekhosa/propflow/internal/app"
	"github.com/zithekhosa/propflow/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// Services bundles everything the HTTP surface needs.
type Services struct {
	Tenancies   *app.TenancyService
	Maintenance *app.MaintenanceService
	Commissions *app.CommissionService
	Reports     *app.ReportService
	Clock       domain.Clock
}

// ActorParams carries the acting identity on every mutating request. Who the
// caller actually is was established by the (external) auth layer; these
// headers are its assertion.
type ActorParams struct {
	ActorID   string `header:"X-Actor-ID" doc:"Identifier of the acting user"`
	ActorRole string `header:"X-Actor-Role" enum:"landlord,tenant,agency,maintenance" doc:"Role of the acting user"`
}

func (p ActorParams) actor() (domain.Actor, error) {
	role, err := domain.ParseRole(p.ActorRole)
	if err != nil {
		return domain.Actor{}, huma.Error422UnprocessableEntity(err.Error())
	}
	if p.ActorID == "" {
		return domain.Actor{}, huma.Error422UnprocessableEntity("X-Actor-ID header is required")
	}
	return domain.Actor{ID: p.ActorID, Role: role}, nil
}

// HistoryEntryResponse is the API representation of one applied transition.
type HistoryEntryResponse struct {
	State     string `json:"state" doc:"State after this transition"`
	ActorID   string `json:"actor_id" doc:"Who performed it"`
	ActorRole string `json:"actor_role" doc:"Role it was performed as"`
	At        string `json:"at" doc:"When it was applied (ISO 8601)"`
	Note      string `json:"note,omitempty" doc:"Optional annotation (e.g. notice reason)"`
}

func toHistoryResponse(history []domain.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(history))
	for i, h := range history {
		out[i] = HistoryEntryResponse{
			State:     string(h.State),
			ActorID:   h.Actor.ID,
			ActorRole: string(h.Actor.Role),
			At:        h.At.Format(timeFormat),
			Note:      h.Note,
		}
	}
	return out
}

// page applies offset then limit to an in-memory slice, matching the
// LIMIT/OFFSET semantics of the stored-state filters. Zero limit means no
// cap.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Register adds all workflow API routes to the Huma API.
func Register(api huma.API, svcs Services) {
	registerTenancies(api, svcs)
	registerMaintenance(api, svcs)
	registerCommissions(api, svcs)
	registerReports(api, svcs)
}

// toHumaError translates domain errors to Huma HTTP errors. Guard and
// transition rejections are expected outcomes and carry enough detail for
// the UI to render an actionable message.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTenancyNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrDealNotFound),
		errors.Is(err, domain.ErrBidNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrAlreadyInNotice),
		errors.Is(err, domain.ErrRateOutOfRange):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var forbidden *domain.ForbiddenError
	if errors.As(err, &forbidden) {
		return huma.Error403Forbidden(forbidden.Error())
	}

	var terminal *domain.TerminalStateError
	if errors.As(err, &terminal) {
		return huma.Error409Conflict(terminal.Error())
	}

	var invalid *domain.InvalidActionError
	if errors.As(err, &invalid) {
		return huma.Error422UnprocessableEntity(invalid.Error())
	}

	var guard *domain.GuardError
	if errors.As(err, &guard) {
		return huma.Error422UnprocessableEntity(guard.Error())
	}

	var unknown *domain.UnknownReasonError
	if errors.As(err, &unknown) {
		return huma.Error422UnprocessableEntity(unknown.Error())
	}

	// huma errors produced while resolving the actor pass through.
	var status huma.StatusError
	if errors.As(err, &status) {
		return err
	}

	return huma.Error500InternalServerError("internal server error")
}
