package fsm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zithekhosa/propflow/internal/adapter/fsm"
	"github.com/zithekhosa/propflow/internal/domain"
)

func TestResolver_ValidTransitions(t *testing.T) {
	cases := []struct {
		name    string
		def     domain.Definition
		current domain.State
		action  domain.Action
		want    domain.State
	}{
		{"issue notice", domain.TenancyWorkflow, domain.TenancyActive, domain.ActionIssueNotice, domain.TenancyNoticeGiven},
		{"remove from active", domain.TenancyWorkflow, domain.TenancyActive, domain.ActionRemove, domain.TenancyTerminated},
		{"remove from notice", domain.TenancyWorkflow, domain.TenancyNoticeGiven, domain.ActionRemove, domain.TenancyTerminated},
		{"publish", domain.MaintenanceWorkflow, domain.RequestSubmitted, domain.ActionPublish, domain.RequestOpenForBids},
		{"accept bid", domain.MaintenanceWorkflow, domain.RequestOpenForBids, domain.ActionAcceptBid, domain.RequestBidAccepted},
		{"start", domain.MaintenanceWorkflow, domain.RequestBidAccepted, domain.ActionStart, domain.RequestInProgress},
		{"complete", domain.MaintenanceWorkflow, domain.RequestInProgress, domain.ActionComplete, domain.RequestCompleted},
		{"cancel from submitted", domain.MaintenanceWorkflow, domain.RequestSubmitted, domain.ActionCancel, domain.RequestCancelled},
		{"cancel from in_progress", domain.MaintenanceWorkflow, domain.RequestInProgress, domain.ActionCancel, domain.RequestCancelled},
		{"mark paid", domain.CommissionWorkflow, domain.DealPending, domain.ActionMarkPaid, domain.DealPaid},
	}

	resolver := fsm.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolver.Resolve(context.Background(), tc.def, tc.current, tc.action)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("destination = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolver_SelfLoopResolvesToCurrentState(t *testing.T) {
	resolver := fsm.New()

	got, err := resolver.Resolve(context.Background(), domain.MaintenanceWorkflow, domain.RequestOpenForBids, domain.ActionSubmitBid)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != domain.RequestOpenForBids {
		t.Errorf("destination = %q, want %q", got, domain.RequestOpenForBids)
	}
}

func TestResolver_InvalidAction(t *testing.T) {
	cases := []struct {
		name    string
		def     domain.Definition
		current domain.State
		action  domain.Action
	}{
		{"accept before publish", domain.MaintenanceWorkflow, domain.RequestSubmitted, domain.ActionAcceptBid},
		{"bid before publish", domain.MaintenanceWorkflow, domain.RequestSubmitted, domain.ActionSubmitBid},
		{"start before accept", domain.MaintenanceWorkflow, domain.RequestOpenForBids, domain.ActionStart},
		{"notice from notice", domain.TenancyWorkflow, domain.TenancyNoticeGiven, domain.ActionIssueNotice},
		{"foreign action", domain.CommissionWorkflow, domain.DealPending, domain.ActionPublish},
	}

	resolver := fsm.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), tc.def, tc.current, tc.action)

			var invalid *domain.InvalidActionError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want InvalidActionError", err)
			}
			if invalid.Action != tc.action || invalid.State != tc.current {
				t.Errorf("error detail = %+v", invalid)
			}
		})
	}
}

func TestResolver_AgreesWithRuleTable(t *testing.T) {
	// The FSM resolution must match the definition's own rule table for
	// every defined edge.
	resolver := fsm.New()
	for _, def := range []domain.Definition{domain.TenancyWorkflow, domain.MaintenanceWorkflow, domain.CommissionWorkflow} {
		for _, rule := range def.Rules {
			got, err := resolver.Resolve(context.Background(), def, rule.Src, rule.Action)
			if err != nil {
				t.Errorf("%s: %s from %s failed: %v", def.Name, rule.Action, rule.Src, err)
				continue
			}
			if got != rule.Dst {
				t.Errorf("%s: %s from %s = %q, want %q", def.Name, rule.Action, rule.Src, got, rule.Dst)
			}
		}
	}
}
