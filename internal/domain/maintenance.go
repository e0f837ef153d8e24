package domain

import (
	"fmt"
	"time"
)

// Maintenance request lifecycle states.
const (
	RequestSubmitted   State = "submitted"
	RequestOpenForBids State = "open_for_bids"
	RequestBidAccepted State = "bid_accepted"
	RequestInProgress  State = "in_progress"
	RequestCompleted   State = "completed"
	RequestCancelled   State = "cancelled"
)

// Maintenance request actions.
const (
	ActionPublish   Action = "publish"
	ActionSubmitBid Action = "submit_bid"
	ActionAcceptBid Action = "accept_bid"
	ActionStart     Action = "start"
	ActionComplete  Action = "complete"
	ActionCancel    Action = "cancel"
)

// Priority of a maintenance request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// PaymentPreference says who pays for the work.
type PaymentPreference string

const (
	PaidByLandlord PaymentPreference = "landlord"
	PaidByTenant   PaymentPreference = "tenant"
)

// Bid is a maintenance provider's offer on an open request. A provider may
// bid at most once per request.
type Bid struct {
	ProviderID  string
	Amount      float64
	Message     string
	SubmittedAt time.Time
	Accepted    bool
}

// MaintenanceRequest tracks a repair job from submission through the bidding
// marketplace to completion. Requests are never deleted; they are retained
// for audit and rating history.
type MaintenanceRequest struct {
	Instance

	PropertyID        string
	TenantID          string
	Category          string
	Priority          Priority
	IsEmergency       bool
	EstimatedCost     float64
	PaymentPreference PaymentPreference

	// Bids in submission order, unique per provider.
	Bids []Bid
}

// NewMaintenanceRequest creates a request in the submitted state.
func NewMaintenanceRequest(id, propertyID, tenantID, category string, priority Priority, emergency bool, estimatedCost float64, pref PaymentPreference, actor Actor, now time.Time) MaintenanceRequest {
	return MaintenanceRequest{
		Instance:          NewInstance(id, RequestSubmitted, actor, now),
		PropertyID:        propertyID,
		TenantID:          tenantID,
		Category:          category,
		Priority:          priority,
		IsEmergency:       emergency,
		EstimatedCost:     estimatedCost,
		PaymentPreference: pref,
	}
}

// BidFrom returns the bid placed by the given provider, if any.
func (m MaintenanceRequest) BidFrom(providerID string) (Bid, bool) {
	for _, b := range m.Bids {
		if b.ProviderID == providerID {
			return b, true
		}
	}
	return Bid{}, false
}

// AcceptedBid returns the accepted bid, if one exists. At most one bid is
// ever accepted.
func (m MaintenanceRequest) AcceptedBid() (Bid, bool) {
	for _, b := range m.Bids {
		if b.Accepted {
			return b, true
		}
	}
	return Bid{}, false
}

// WithBid returns a copy with the bid appended. The receiver's bid slice is
// never shared with the copy.
func (m MaintenanceRequest) WithBid(b Bid) MaintenanceRequest {
	bids := make([]Bid, len(m.Bids)+1)
	copy(bids, m.Bids)
	bids[len(m.Bids)] = b
	m.Bids = bids
	return m
}

// WithAcceptedBid returns a copy with exactly the given provider's bid
// marked accepted. All other bids stay implicitly rejected.
func (m MaintenanceRequest) WithAcceptedBid(providerID string) MaintenanceRequest {
	bids := make([]Bid, len(m.Bids))
	copy(bids, m.Bids)
	for i := range bids {
		bids[i].Accepted = bids[i].ProviderID == providerID
	}
	m.Bids = bids
	return m
}

// BidPayload carries a new bid through the submit_bid guard. Cap is the
// configured bid ceiling; zero means no cap.
type BidPayload struct {
	ProviderID string
	Amount     float64
	Message    string
	Cap        float64
}

// AcceptBidPayload identifies the bid to accept by its provider.
type AcceptBidPayload struct {
	ProviderID string
}

// MaintenanceWorkflow is the maintenance-request transition table.
// submit_bid is a self-loop: the state stays open_for_bids while the bid set
// grows. accept_bid is the exclusivity point; its guard enforces
// at-most-one-accepted-bid together with bidOpen on submit_bid.
var MaintenanceWorkflow = mustDefinition(Definition{
	Name:     "maintenance_request",
	Initial:  RequestSubmitted,
	Terminal: []State{RequestCompleted, RequestCancelled},
	Rules: []Rule{
		{
			Action: ActionPublish,
			Src:    RequestSubmitted,
			Dst:    RequestOpenForBids,
			Roles:  []Role{RoleTenant, RoleLandlord, RoleAgency},
		},
		{
			Action: ActionSubmitBid,
			Src:    RequestOpenForBids,
			Dst:    RequestOpenForBids,
			Roles:  []Role{RoleMaintenance},
			Guard:  bidOpen,
		},
		{
			Action: ActionAcceptBid,
			Src:    RequestOpenForBids,
			Dst:    RequestBidAccepted,
			Roles:  []Role{RoleTenant, RoleLandlord},
			Guard:  bidAcceptable,
		},
		{
			Action: ActionStart,
			Src:    RequestBidAccepted,
			Dst:    RequestInProgress,
			Roles:  []Role{RoleMaintenance},
			Guard:  acceptedProviderOnly,
		},
		{
			Action: ActionComplete,
			Src:    RequestInProgress,
			Dst:    RequestCompleted,
			Roles:  []Role{RoleMaintenance},
			Guard:  acceptedProviderOnly,
		},
		{Action: ActionCancel, Src: RequestSubmitted, Dst: RequestCancelled, Roles: []Role{RoleTenant, RoleLandlord}, Guard: requestOwnerOnly},
		{Action: ActionCancel, Src: RequestOpenForBids, Dst: RequestCancelled, Roles: []Role{RoleTenant, RoleLandlord}, Guard: requestOwnerOnly},
		{Action: ActionCancel, Src: RequestBidAccepted, Dst: RequestCancelled, Roles: []Role{RoleTenant, RoleLandlord}, Guard: requestOwnerOnly},
		{Action: ActionCancel, Src: RequestInProgress, Dst: RequestCancelled, Roles: []Role{RoleTenant, RoleLandlord}, Guard: requestOwnerOnly},
	},
})

// bidOpen rejects new bids once any bid has been accepted, duplicates from
// the same provider, and amounts over the configured cap.
func bidOpen(in GuardInput) error {
	m := in.Subject.(MaintenanceRequest)
	p, _ := in.Payload.(BidPayload)

	if _, accepted := m.AcceptedBid(); accepted {
		return &GuardError{Reason: GuardBiddingClosed, Detail: "a bid has already been accepted"}
	}
	if _, exists := m.BidFrom(p.ProviderID); exists {
		return &GuardError{
			Reason: GuardDuplicateBid,
			Detail: fmt.Sprintf("provider %q already bid on this request", p.ProviderID),
		}
	}
	if p.Cap > 0 && p.Amount > p.Cap {
		return &GuardError{
			Reason: GuardBidCapExceeded,
			Detail: fmt.Sprintf("bid %.2f exceeds cap %.2f", p.Amount, p.Cap),
		}
	}
	return nil
}

// bidAcceptable holds when the named bid exists, no bid has been accepted
// yet, and the actor owns the request.
func bidAcceptable(in GuardInput) error {
	m := in.Subject.(MaintenanceRequest)
	p, _ := in.Payload.(AcceptBidPayload)

	if err := ownsRequest(m, in.Actor); err != nil {
		return err
	}
	if _, accepted := m.AcceptedBid(); accepted {
		return &GuardError{Reason: GuardAlreadyAccepted, Detail: "another bid has already been accepted"}
	}
	if _, exists := m.BidFrom(p.ProviderID); !exists {
		return ErrBidNotFound
	}
	return nil
}

// acceptedProviderOnly restricts start/complete to the provider whose bid
// was accepted.
func acceptedProviderOnly(in GuardInput) error {
	m := in.Subject.(MaintenanceRequest)
	accepted, ok := m.AcceptedBid()
	if !ok || accepted.ProviderID != in.Actor.ID {
		return &GuardError{
			Reason: GuardNotAcceptedProvider,
			Detail: "only the accepted provider may work this request",
		}
	}
	return nil
}

// requestOwnerOnly gates cancel on request ownership.
func requestOwnerOnly(in GuardInput) error {
	return ownsRequest(in.Subject.(MaintenanceRequest), in.Actor)
}

// ownsRequest checks identity for tenant actors. Landlord and agency
// ownership of the property is vouched for by the transport layer; the core
// has no property register to check against.
func ownsRequest(m MaintenanceRequest, actor Actor) error {
	if actor.Role == RoleTenant && actor.ID != m.TenantID {
		return &GuardError{
			Reason: GuardNotRequestOwner,
			Detail: "request belongs to a different tenant",
		}
	}
	return nil
}
