package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenancyNotFound = errors.New("tenancy not found")
	ErrRequestNotFound = errors.New("maintenance request not found")
	ErrDealNotFound    = errors.New("commission deal not found")
	ErrBidNotFound     = errors.New("bid not found")

	// ErrConflict signals an optimistic-concurrency failure from the store.
	// The caller should reload the instance and retry.
	ErrConflict = errors.New("instance was modified concurrently")

	// ErrAlreadyInNotice rejects a second issue_notice without an
	// intervening return to active.
	ErrAlreadyInNotice = errors.New("tenancy already has an active notice")

	// ErrRateOutOfRange rejects commission rates outside 0.1-100 percent.
	ErrRateOutOfRange = errors.New("commission rate must be between 0.1 and 100")
)

// InvalidActionError is returned when an action is not defined for the
// instance's current state.
type InvalidActionError struct {
	Workflow string
	Action   Action
	State    State
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("%s: action %q is not valid from state %q", e.Workflow, e.Action, e.State)
}

// ForbiddenError is returned when the actor's role is not permitted for a
// transition.
type ForbiddenError struct {
	Workflow string
	Action   Action
	Role     Role
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s: role %q may not perform %q", e.Workflow, e.Role, e.Action)
}

// TerminalStateError is returned for any attempt to transition out of a
// terminal state.
type TerminalStateError struct {
	Workflow string
	State    State
	Action   Action
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s: state %q is terminal, %q rejected", e.Workflow, e.State, e.Action)
}

// GuardReason is the machine-readable cause of a guard rejection.
type GuardReason string

const (
	GuardNoticeRequired         GuardReason = "notice_required"
	GuardNoticePeriodNotElapsed GuardReason = "notice_period_not_elapsed"
	GuardDuplicateBid           GuardReason = "duplicate_bid"
	GuardBidCapExceeded         GuardReason = "bid_cap_exceeded"
	GuardBiddingClosed          GuardReason = "bidding_closed"
	GuardAlreadyAccepted        GuardReason = "already_accepted"
	GuardNotRequestOwner        GuardReason = "not_request_owner"
	GuardNotAcceptedProvider    GuardReason = "not_accepted_provider"
)

// GuardError is returned when a transition's guard predicate does not hold.
type GuardError struct {
	Reason GuardReason
	Detail string
}

func (e *GuardError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("guard failed (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("guard failed (%s)", e.Reason)
}

// UnknownReasonError is returned on a notice-policy lookup miss. The policy
// never silently defaults.
type UnknownReasonError struct {
	Reason NoticeReason
}

func (e *UnknownReasonError) Error() string {
	return fmt.Sprintf("no notice period configured for reason %q", e.Reason)
}
