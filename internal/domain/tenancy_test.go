package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zithekhosa/propflow/internal/domain"
)

func activeTenancy() domain.Tenancy {
	return domain.NewTenancy("t-1", "tenant-1", "prop-1", testNow, testNow.AddDate(1, 0, 0), 1200, landlord, testNow)
}

func issueNotice(t *testing.T, tenancy domain.Tenancy, reason domain.NoticeReason, at time.Time) domain.Tenancy {
	t.Helper()

	expiry, err := domain.DefaultNoticePolicy().ExpiryFrom(reason, at)
	if err != nil {
		t.Fatalf("ExpiryFrom failed: %v", err)
	}

	inst, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action: domain.ActionIssueNotice,
		Actor:  landlord,
		Now:    at,
		Note:   string(reason),
	})
	if err != nil {
		t.Fatalf("issue_notice failed: %v", err)
	}

	tenancy = tenancy.WithNotice(reason, at, expiry)
	tenancy.Instance = inst
	return tenancy
}

func TestTenancy_NonPaymentEviction(t *testing.T) {
	tenancy := issueNotice(t, activeTenancy(), domain.NoticeNonPayment, testNow)

	if tenancy.State != domain.TenancyNoticeGiven {
		t.Fatalf("state = %q, want %q", tenancy.State, domain.TenancyNoticeGiven)
	}
	wantExpiry := testNow.AddDate(0, 0, 7)
	if !tenancy.NoticeExpiresAt.Equal(wantExpiry) {
		t.Errorf("NoticeExpiresAt = %v, want %v", tenancy.NoticeExpiresAt, wantExpiry)
	}

	// Removal on day 3 is premature.
	_, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action:  domain.ActionRemove,
		Actor:   landlord,
		Now:     testNow.AddDate(0, 0, 3),
		Payload: domain.RemovalPayload{Voluntary: false},
	})
	var guard *domain.GuardError
	if !errors.As(err, &guard) {
		t.Fatalf("early removal error = %v, want GuardError", err)
	}
	if guard.Reason != domain.GuardNoticePeriodNotElapsed {
		t.Errorf("Reason = %q, want %q", guard.Reason, domain.GuardNoticePeriodNotElapsed)
	}

	// Removal on day 8 goes through.
	inst, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action:  domain.ActionRemove,
		Actor:   landlord,
		Now:     testNow.AddDate(0, 0, 8),
		Payload: domain.RemovalPayload{Voluntary: false},
	})
	if err != nil {
		t.Fatalf("removal after expiry failed: %v", err)
	}
	if inst.State != domain.TenancyTerminated {
		t.Errorf("state = %q, want %q", inst.State, domain.TenancyTerminated)
	}
	if len(inst.History) != 3 {
		t.Errorf("history length = %d, want 3", len(inst.History))
	}
}

func TestTenancy_RemovalExactlyAtExpiry(t *testing.T) {
	tenancy := issueNotice(t, activeTenancy(), domain.NoticeNonPayment, testNow)

	// The boundary instant counts as elapsed.
	_, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action:  domain.ActionRemove,
		Actor:   landlord,
		Now:     tenancy.NoticeExpiresAt,
		Payload: domain.RemovalPayload{Voluntary: false},
	})
	if err != nil {
		t.Errorf("removal at expiry instant failed: %v", err)
	}
}

func TestTenancy_VoluntaryRemovalSkipsNotice(t *testing.T) {
	tenancy := activeTenancy()

	inst, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action:  domain.ActionRemove,
		Actor:   agency,
		Now:     testNow,
		Payload: domain.RemovalPayload{Voluntary: true},
	})
	if err != nil {
		t.Fatalf("voluntary removal failed: %v", err)
	}
	if inst.State != domain.TenancyTerminated {
		t.Errorf("state = %q, want %q", inst.State, domain.TenancyTerminated)
	}
}

func TestTenancy_VoluntaryRemovalDuringNotice(t *testing.T) {
	tenancy := issueNotice(t, activeTenancy(), domain.NoticeOwnerOccupation, testNow)

	// Voluntary departure does not wait out the 90 days.
	_, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action:  domain.ActionRemove,
		Actor:   landlord,
		Now:     testNow.AddDate(0, 0, 1),
		Payload: domain.RemovalPayload{Voluntary: true},
	})
	if err != nil {
		t.Errorf("voluntary removal during notice failed: %v", err)
	}
}

func TestTenancy_TenantMayNotIssueNotice(t *testing.T) {
	tenancy := activeTenancy()

	_, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action: domain.ActionIssueNotice,
		Actor:  tenantActor,
		Now:    testNow,
	})

	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("error = %v, want ForbiddenError", err)
	}
}

func TestTenancy_TerminatedIsFinal(t *testing.T) {
	tenancy := activeTenancy()
	inst, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
		Action:  domain.ActionRemove,
		Actor:   landlord,
		Now:     testNow,
		Payload: domain.RemovalPayload{Voluntary: true},
	})
	if err != nil {
		t.Fatalf("removal failed: %v", err)
	}
	tenancy.Instance = inst

	for _, action := range []domain.Action{domain.ActionIssueNotice, domain.ActionRemove} {
		_, err := testEngine().Attempt(context.Background(), domain.TenancyWorkflow, tenancy, tenancy.Instance, domain.AttemptRequest{
			Action:  action,
			Actor:   landlord,
			Now:     testNow,
			Payload: domain.RemovalPayload{Voluntary: true},
		})
		var terminal *domain.TerminalStateError
		if !errors.As(err, &terminal) {
			t.Errorf("%s after termination: error = %v, want TerminalStateError", action, err)
		}
	}
}
