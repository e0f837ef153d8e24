package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zithekhosa/propflow/internal/app"
	"github.com/zithekhosa/propflow/internal/domain"
)

func createDeal(t *testing.T, svc *app.CommissionService, in app.CreateDealInput) domain.CommissionDeal {
	t.Helper()
	deal, err := svc.Create(context.Background(), in, agency)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return deal
}

func saleDeal(due int) app.CreateDealInput {
	return app.CreateDealInput{
		DealType:       domain.DealSale,
		DealValue:      200000,
		CommissionRate: 3,
		ClosingDate:    testNow,
		DueDate:        testNow.AddDate(0, 0, due),
	}
}

func TestCommissionService_Create(t *testing.T) {
	repo := newMockCommissionRepo()
	pub := &capturePublisher{}
	svc := app.NewCommissionService(repo, pub, testEngine(), newFixedClock(testNow))

	deal := createDeal(t, svc, saleDeal(30))

	if deal.State != domain.DealPending {
		t.Errorf("state = %q, want %q", deal.State, domain.DealPending)
	}
	if deal.CommissionAmount() != 6000 {
		t.Errorf("commission = %v, want 6000", deal.CommissionAmount())
	}
	if len(pub.events) != 1 || pub.events[0].Action != "created" {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestCommissionService_Create_RejectsBadRate(t *testing.T) {
	svc := app.NewCommissionService(newMockCommissionRepo(), &capturePublisher{}, testEngine(), newFixedClock(testNow))

	in := saleDeal(30)
	in.CommissionRate = 150
	_, err := svc.Create(context.Background(), in, agency)
	if !errors.Is(err, domain.ErrRateOutOfRange) {
		t.Errorf("error = %v, want ErrRateOutOfRange", err)
	}
}

func TestCommissionService_EffectiveAndDaysUntilDue(t *testing.T) {
	clock := newFixedClock(testNow)
	svc := app.NewCommissionService(newMockCommissionRepo(), &capturePublisher{}, testEngine(), clock)

	deal := createDeal(t, svc, saleDeal(10))

	if got := svc.Effective(deal); got != domain.DealPending {
		t.Errorf("effective = %q, want %q", got, domain.DealPending)
	}
	if got := svc.DaysUntilDue(deal); got != 10 {
		t.Errorf("days until due = %d, want 10", got)
	}

	clock.AdvanceDays(15)

	if got := svc.Effective(deal); got != domain.DealOverdue {
		t.Errorf("effective after due = %q, want %q", got, domain.DealOverdue)
	}
	if got := svc.DaysUntilDue(deal); got != -5 {
		t.Errorf("days until due = %d, want -5", got)
	}
}

func TestCommissionService_MarkPaid(t *testing.T) {
	repo := newMockCommissionRepo()
	pub := &capturePublisher{}
	clock := newFixedClock(testNow)
	svc := app.NewCommissionService(repo, pub, testEngine(), clock)

	deal := createDeal(t, svc, saleDeal(10))

	got, err := svc.MarkPaid(context.Background(), deal.ID, agency)
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if got.State != domain.DealPaid {
		t.Errorf("state = %q, want %q", got.State, domain.DealPaid)
	}
	if got.PaymentDate == nil || !got.PaymentDate.Equal(testNow) {
		t.Errorf("PaymentDate = %v, want %v", got.PaymentDate, testNow)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}
	if len(pub.events) != 2 || pub.events[1].Action != domain.ActionMarkPaid {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestCommissionService_MarkPaid_OverdueDealSettles(t *testing.T) {
	clock := newFixedClock(testNow)
	svc := app.NewCommissionService(newMockCommissionRepo(), &capturePublisher{}, testEngine(), clock)

	deal := createDeal(t, svc, saleDeal(5))
	clock.AdvanceDays(30)

	if svc.Effective(deal) != domain.DealOverdue {
		t.Fatal("deal should read as overdue")
	}

	got, err := svc.MarkPaid(context.Background(), deal.ID, landlord)
	if err != nil {
		t.Fatalf("MarkPaid on overdue deal failed: %v", err)
	}
	if got.State != domain.DealPaid {
		t.Errorf("state = %q, want %q", got.State, domain.DealPaid)
	}
	if svc.Effective(got) != domain.DealPaid {
		t.Errorf("effective = %q, want %q", svc.Effective(got), domain.DealPaid)
	}
}

func TestCommissionService_MarkPaid_Twice(t *testing.T) {
	svc := app.NewCommissionService(newMockCommissionRepo(), &capturePublisher{}, testEngine(), newFixedClock(testNow))

	deal := createDeal(t, svc, saleDeal(10))
	if _, err := svc.MarkPaid(context.Background(), deal.ID, agency); err != nil {
		t.Fatalf("first MarkPaid failed: %v", err)
	}

	_, err := svc.MarkPaid(context.Background(), deal.ID, agency)
	var terminal *domain.TerminalStateError
	if !errors.As(err, &terminal) {
		t.Errorf("error = %v, want TerminalStateError", err)
	}
}

func TestCommissionService_MarkPaid_TenantForbidden(t *testing.T) {
	svc := app.NewCommissionService(newMockCommissionRepo(), &capturePublisher{}, testEngine(), newFixedClock(testNow))
	deal := createDeal(t, svc, saleDeal(10))

	_, err := svc.MarkPaid(context.Background(), deal.ID, tenantActor)
	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Errorf("error = %v, want ForbiddenError", err)
	}
}
