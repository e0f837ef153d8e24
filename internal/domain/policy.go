package domain

import "time"

// NoticeReason is the legal ground for issuing an eviction notice. The
// notice period is keyed by reason.
type NoticeReason string

const (
	NoticeNonPayment      NoticeReason = "non_payment"
	NoticeLeaseViolation  NoticeReason = "lease_violation"
	NoticePropertyDamage  NoticeReason = "property_damage"
	NoticeIllegalActivity NoticeReason = "illegal_activity"
	NoticeEndOfLease      NoticeReason = "end_of_lease"
	NoticeOwnerOccupation NoticeReason = "owner_occupation"
)

// NoticePolicy maps eviction reasons to mandatory notice periods in days.
// It is supplied as configuration so operators can tune legal notice periods
// per jurisdiction without code changes.
type NoticePolicy struct {
	Days map[NoticeReason]int
}

// DefaultNoticePolicy returns the built-in notice period table.
func DefaultNoticePolicy() NoticePolicy {
	return NoticePolicy{Days: map[NoticeReason]int{
		NoticeNonPayment:      7,
		NoticeLeaseViolation:  30,
		NoticePropertyDamage:  14,
		NoticeIllegalActivity: 7,
		NoticeEndOfLease:      30,
		NoticeOwnerOccupation: 90,
	}}
}

// PeriodDays returns the notice period for the given reason. A lookup miss
// is an UnknownReasonError, never a silent default.
func (p NoticePolicy) PeriodDays(reason NoticeReason) (int, error) {
	days, ok := p.Days[reason]
	if !ok {
		return 0, &UnknownReasonError{Reason: reason}
	}
	return days, nil
}

// ExpiryFrom computes when a notice issued at the given time expires.
func (p NoticePolicy) ExpiryFrom(reason NoticeReason, issuedAt time.Time) (time.Time, error) {
	days, err := p.PeriodDays(reason)
	if err != nil {
		return time.Time{}, err
	}
	return issuedAt.AddDate(0, 0, days), nil
}

// DaysUntil returns the number of whole days from now until target, rounded
// down. The value is signed: negative as soon as target is past, zero only
// while target is still ahead within the current day. Callers rely on the
// sign to distinguish due-today from overdue.
func DaysUntil(target, now time.Time) int {
	const day = 24 * time.Hour
	d := target.Sub(now)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// DisplayDaysUntil is DaysUntil clamped to zero, for UI consumption only.
func DisplayDaysUntil(target, now time.Time) int {
	if d := DaysUntil(target, now); d > 0 {
		return d
	}
	return 0
}

// IsOverdue reports whether now is strictly past the due date.
func IsOverdue(dueDate, now time.Time) bool {
	return now.After(dueDate)
}
