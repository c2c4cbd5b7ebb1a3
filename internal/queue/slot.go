package queue

import (
	"time"

	"turnline/queue-gateway/internal/domain"
)

// Allocate returns the slot time of a new entrant. tail is nil for an empty queue.
func (e *Engine) Allocate(tail *domain.Reservation, now time.Time) time.Time {
	if tail == nil {
		return now
	}

	tailEnd := e.WindowEnd(tail.SlotTime)
	if tailEnd.After(now) {
		return tailEnd
	}

	// backlog drained, never extrapolate from a stale tail
	return now
}

// EstimateWait counts whole units until the tail's window closes, rounding up.
func (e *Engine) EstimateWait(tail *domain.Reservation, now time.Time, unit time.Duration) int64 {
	if tail == nil || unit <= 0 {
		return 0
	}

	remaining := e.WindowEnd(tail.SlotTime).Sub(now)
	if remaining <= 0 {
		return 0
	}

	units := int64(remaining / unit)
	if remaining%unit != 0 {
		units++
	}

	return units
}
