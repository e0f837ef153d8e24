package domain

import (
	"fmt"
	"time"
)

// Tenancy lifecycle states.
const (
	TenancyActive      State = "active"
	TenancyNoticeGiven State = "notice_given"
	TenancyTerminated  State = "terminated"
)

// Tenancy actions.
const (
	ActionIssueNotice Action = "issue_notice"
	ActionRemove      Action = "remove"
)

// Tenancy tracks a lease from signing to termination. Terminated tenancies
// are never deleted; they remain as history.
type Tenancy struct {
	Instance

	TenantID   string
	PropertyID string
	LeaseStart time.Time
	LeaseEnd   time.Time
	RentAmount float64

	// Notice fields are set together when a notice is issued.
	// NoticeExpiresAt is always derived from NoticeIssuedAt and the policy
	// table, never set independently.
	NoticeReason    NoticeReason
	NoticeIssuedAt  time.Time
	NoticeExpiresAt time.Time
}

// NewTenancy creates an active tenancy for a signed lease.
func NewTenancy(id, tenantID, propertyID string, leaseStart, leaseEnd time.Time, rent float64, actor Actor, now time.Time) Tenancy {
	return Tenancy{
		Instance:   NewInstance(id, TenancyActive, actor, now),
		TenantID:   tenantID,
		PropertyID: propertyID,
		LeaseStart: leaseStart,
		LeaseEnd:   leaseEnd,
		RentAmount: rent,
	}
}

// WithNotice returns a copy carrying the issued notice and its derived expiry.
func (t Tenancy) WithNotice(reason NoticeReason, issuedAt, expiresAt time.Time) Tenancy {
	t.NoticeReason = reason
	t.NoticeIssuedAt = issuedAt
	t.NoticeExpiresAt = expiresAt
	return t
}

// RemovalPayload carries the voluntary flag for a remove action. Voluntary
// removal (tenant leaving by agreement) skips the notice-period guard.
type RemovalPayload struct {
	Voluntary bool
}

// TenancyWorkflow is the tenancy transition table. Only landlords and
// agencies may issue notices or remove tenants.
var TenancyWorkflow = mustDefinition(Definition{
	Name:     "tenancy",
	Initial:  TenancyActive,
	Terminal: []State{TenancyTerminated},
	Rules: []Rule{
		{
			Action: ActionIssueNotice,
			Src:    TenancyActive,
			Dst:    TenancyNoticeGiven,
			Roles:  []Role{RoleLandlord, RoleAgency},
		},
		{
			Action: ActionRemove,
			Src:    TenancyActive,
			Dst:    TenancyTerminated,
			Roles:  []Role{RoleLandlord, RoleAgency},
			Guard:  voluntaryOnly,
		},
		{
			Action: ActionRemove,
			Src:    TenancyNoticeGiven,
			Dst:    TenancyTerminated,
			Roles:  []Role{RoleLandlord, RoleAgency},
			Guard:  noticeElapsedOrVoluntary,
		},
	},
})

// voluntaryOnly allows removal straight from active only when the tenant
// leaves by agreement. Involuntary removal must go through a notice.
func voluntaryOnly(in GuardInput) error {
	p, _ := in.Payload.(RemovalPayload)
	if p.Voluntary {
		return nil
	}
	return &GuardError{
		Reason: GuardNoticeRequired,
		Detail: "involuntary removal requires an issued notice",
	}
}

// noticeElapsedOrVoluntary holds once the notice period has run out, or
// immediately for a voluntary departure.
func noticeElapsedOrVoluntary(in GuardInput) error {
	p, _ := in.Payload.(RemovalPayload)
	if p.Voluntary {
		return nil
	}
	t := in.Subject.(Tenancy)
	if !in.Now.Before(t.NoticeExpiresAt) {
		return nil
	}
	return &GuardError{
		Reason: GuardNoticePeriodNotElapsed,
		Detail: fmt.Sprintf("notice period ends %s", t.NoticeExpiresAt.Format(time.RFC3339)),
	}
}
