package domain

// Reporting reducers. All of them are pure and recomputed on every read from
// the current instance collection; nothing here maintains incremental state,
// so the numbers can never drift from the instances they summarize.

// CountByState tallies instances per state. The state function lets callers
// count by effective state (commission deals) as well as stored state.
func CountByState[T any](items []T, state func(T) State) map[State]int {
	counts := make(map[State]int, len(items))
	for _, item := range items {
		counts[state(item)]++
	}
	return counts
}

// SumWhere totals a numeric field over the instances in the given state.
func SumWhere[T any](items []T, state func(T) State, want State, value func(T) float64) float64 {
	var total float64
	for _, item := range items {
		if state(item) == want {
			total += value(item)
		}
	}
	return total
}

// Percentage returns part as a percentage of total, zero when total is zero.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// BidConversionRate is the share of requests that reached an accepted bid
// among requests that attracted at least one bid.
func BidConversionRate(requests []MaintenanceRequest) float64 {
	var withBids, converted int
	for _, r := range requests {
		if len(r.Bids) == 0 {
			continue
		}
		withBids++
		if _, ok := r.AcceptedBid(); ok {
			converted++
		}
	}
	return Percentage(converted, withBids)
}
