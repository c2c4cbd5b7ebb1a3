package queue

import (
	"time"

	"turnline/queue-gateway/internal/domain"
)

// IsExpired reports whether the window of a slot starting at slotTime has
// already closed at ref. The closing instant itself still belongs to the slot.
func (e *Engine) IsExpired(slotTime, ref time.Time) bool {
	return ref.After(e.WindowEnd(slotTime))
}

func (e *Engine) IsActive(r domain.Reservation, ref time.Time) bool {
	return !e.IsExpired(r.SlotTime, ref)
}
