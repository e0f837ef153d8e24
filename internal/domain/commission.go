package domain

import "time"

// Commission deal states. Only pending and paid are ever persisted; overdue
// is derived at read time from the due date and the clock.
const (
	DealPending State = "pending"
	DealPaid    State = "paid"
	DealOverdue State = "overdue"
)

// Commission deal actions.
const (
	ActionMarkPaid Action = "mark_paid"
)

// DealType distinguishes how the deal value is interpreted.
type DealType string

const (
	DealLease DealType = "lease"
	DealSale  DealType = "sale"
)

// CommissionDeal tracks an agency commission from closing to payment.
type CommissionDeal struct {
	Instance

	DealType       DealType
	DealValue      float64
	CommissionRate float64
	ClosingDate    time.Time
	DueDate        time.Time
	PaymentDate    *time.Time
}

// NewCommissionDeal creates a pending deal. The rate is validated up front;
// the commission amount is always derived from the stored inputs.
func NewCommissionDeal(id string, dealType DealType, dealValue, rate float64, closing, due time.Time, actor Actor, now time.Time) (CommissionDeal, error) {
	if _, err := ComputeCommission(dealType, dealValue, rate); err != nil {
		return CommissionDeal{}, err
	}
	return CommissionDeal{
		Instance:       NewInstance(id, DealPending, actor, now),
		DealType:       dealType,
		DealValue:      dealValue,
		CommissionRate: rate,
		ClosingDate:    closing,
		DueDate:        due,
	}, nil
}

// ComputeCommission returns dealValue * rate/100. For lease deals, dealValue
// must already be the ANNUALIZED value: a caller holding a monthly rent must
// multiply by 12 before construction. This precondition is the caller's
// contract; the function does not annualize. For sale deals, dealValue is
// the sale price.
func ComputeCommission(dealType DealType, dealValue, rate float64) (float64, error) {
	if rate < 0.1 || rate > 100 {
		return 0, ErrRateOutOfRange
	}
	_ = dealType // both types apply the rate to dealValue as given
	return dealValue * rate / 100, nil
}

// CommissionAmount is the derived commission for this deal. The inputs were
// validated at construction.
func (d CommissionDeal) CommissionAmount() float64 {
	amount, _ := ComputeCommission(d.DealType, d.DealValue, d.CommissionRate)
	return amount
}

// EffectiveState derives the read-time state. A pending deal past its due
// date reads as overdue; overdue is never written to the store.
func (d CommissionDeal) EffectiveState(now time.Time) State {
	if d.State == DealPaid {
		return DealPaid
	}
	if IsOverdue(d.DueDate, now) {
		return DealOverdue
	}
	return DealPending
}

// WithPayment returns a copy carrying the payment date.
func (d CommissionDeal) WithPayment(at time.Time) CommissionDeal {
	paid := at
	d.PaymentDate = &paid
	return d
}

// CommissionWorkflow is the commission-deal transition table. The single
// edge runs from the stored pending state; an effectively overdue deal is
// still stored as pending and takes the same edge. No transition leaves
// paid.
var CommissionWorkflow = mustDefinition(Definition{
	Name:     "commission_deal",
	Initial:  DealPending,
	Terminal: []State{DealPaid},
	Rules: []Rule{
		{
			Action: ActionMarkPaid,
			Src:    DealPending,
			Dst:    DealPaid,
			Roles:  []Role{RoleLandlord, RoleAgency},
		},
	},
})
