package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/zithekhosa/propflow/internal/domain"
)

func TestDefaultNoticePolicy_Periods(t *testing.T) {
	policy := domain.DefaultNoticePolicy()

	cases := []struct {
		reason domain.NoticeReason
		days   int
	}{
		{domain.NoticeNonPayment, 7},
		{domain.NoticeLeaseViolation, 30},
		{domain.NoticePropertyDamage, 14},
		{domain.NoticeIllegalActivity, 7},
		{domain.NoticeEndOfLease, 30},
		{domain.NoticeOwnerOccupation, 90},
	}
	for _, tc := range cases {
		got, err := policy.PeriodDays(tc.reason)
		if err != nil {
			t.Errorf("PeriodDays(%q) failed: %v", tc.reason, err)
			continue
		}
		if got != tc.days {
			t.Errorf("PeriodDays(%q) = %d, want %d", tc.reason, got, tc.days)
		}
	}
}

func TestNoticePolicy_UnknownReason(t *testing.T) {
	policy := domain.DefaultNoticePolicy()

	_, err := policy.PeriodDays("retaliation")
	var unknown *domain.UnknownReasonError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownReasonError", err)
	}

	if _, err := policy.ExpiryFrom("retaliation", testNow); err == nil {
		t.Error("ExpiryFrom with unknown reason succeeded, want error")
	}
}

func TestNoticePolicy_ExpiryFrom(t *testing.T) {
	policy := domain.DefaultNoticePolicy()

	expiry, err := policy.ExpiryFrom(domain.NoticeOwnerOccupation, testNow)
	if err != nil {
		t.Fatalf("ExpiryFrom failed: %v", err)
	}
	if want := testNow.AddDate(0, 0, 90); !expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", expiry, want)
	}
}

func TestDaysUntil(t *testing.T) {
	cases := []struct {
		name   string
		target time.Time
		want   int
	}{
		{"ten days out", testNow.AddDate(0, 0, 10), 10},
		{"same instant", testNow, 0},
		{"later today", testNow.Add(6 * time.Hour), 0},
		{"five days past", testNow.AddDate(0, 0, -5), -5},
		{"just past", testNow.Add(-time.Hour), -1},
		{"partial day past", testNow.Add(-30 * time.Hour), -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.DaysUntil(tc.target, testNow); got != tc.want {
				t.Errorf("DaysUntil = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDisplayDaysUntil_ClampsNegative(t *testing.T) {
	if got := domain.DisplayDaysUntil(testNow.AddDate(0, 0, -5), testNow); got != 0 {
		t.Errorf("DisplayDaysUntil past = %d, want 0", got)
	}
	if got := domain.DisplayDaysUntil(testNow.AddDate(0, 0, 3), testNow); got != 3 {
		t.Errorf("DisplayDaysUntil future = %d, want 3", got)
	}
}

func TestIsOverdue(t *testing.T) {
	due := testNow
	if domain.IsOverdue(due, testNow) {
		t.Error("due instant should not be overdue")
	}
	if !domain.IsOverdue(due, testNow.Add(time.Nanosecond)) {
		t.Error("one tick past due should be overdue")
	}
	if domain.IsOverdue(due, testNow.Add(-time.Hour)) {
		t.Error("before due should not be overdue")
	}
}
