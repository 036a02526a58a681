package network

import "time"

// RequestTimer splits one request's total time budget across its sequential
// phases. Zero total means no budget, every phase gets its desired time.
type RequestTimer struct {
	deadline time.Time
	bounded  bool
}

// TakeOptions tune one phase allocation.
type TakeOptions struct {
	// Min is the floor of the allocation even when the budget has run dry.
	Min time.Duration
	// GrabFree lets the phase absorb budget the remaining planned phases do
	// not claim.
	GrabFree bool
}

// NewRequestTimer starts a budget of total.
func NewRequestTimer(total time.Duration) *RequestTimer {
	t := &RequestTimer{}
	if total > 0 {
		t.deadline = time.Now().Add(total)
		t.bounded = true
	}
	return t
}

// Remaining reports the unspent budget.
func (t *RequestTimer) Remaining() time.Duration {
	if !t.bounded {
		return 0
	}
	left := time.Until(t.deadline)
	if left < 0 {
		return 0
	}
	return left
}

// Take allocates time for the first entry of plan, where plan lists the
// desired durations of this and all following phases. When the whole plan
// exceeds the remaining budget every entry shrinks proportionally.
func (t *RequestTimer) Take(plan []time.Duration, opts TakeOptions) time.Duration {
	if len(plan) == 0 {
		return t.Remaining()
	}
	if !t.bounded {
		return plan[0]
	}

	var sum time.Duration
	for _, d := range plan {
		sum += d
	}

	remaining := t.Remaining()
	alloc := plan[0]
	if sum > remaining && sum > 0 {
		alloc = time.Duration(float64(plan[0]) * float64(remaining) / float64(sum))
	} else if opts.GrabFree {
		alloc += remaining - sum
	}

	if alloc < opts.Min {
		alloc = opts.Min
	}
	return alloc
}
