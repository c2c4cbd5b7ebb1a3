package queue

import "turnline/queue-gateway/internal/domain"

// Reflow returns the successors of cancelled that must move one slot earlier,
// already shifted. Successors starting at or before the cancelled slot are
// left out.
func (e *Engine) Reflow(cancelled domain.Reservation, successors []domain.Reservation) []domain.Reservation {
	shifted := make([]domain.Reservation, 0, len(successors))
	for _, s := range successors {
		if !s.SlotTime.After(cancelled.SlotTime) {
			continue
		}

		s.SlotTime = s.SlotTime.Add(-e.slot)
		shifted = append(shifted, s)
	}

	return shifted
}
