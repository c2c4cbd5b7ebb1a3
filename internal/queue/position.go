package queue

import (
	"time"

	"turnline/queue-gateway/internal/domain"
)

// Position reports how many of predecessors are still active at now.
// served is true when target itself has expired; pos is then meaningless
// and callers must not confuse it with "your turn now".
func (e *Engine) Position(target domain.Reservation, predecessors []domain.Reservation, now time.Time) (pos int, served bool) {
	if e.IsExpired(target.SlotTime, now) {
		return 0, true
	}

	for _, p := range predecessors {
		if e.IsActive(p, now) {
			pos++
		}
	}

	return pos, false
}

// Split returns the ids queued before and after id. found is false when id
// is not in order.
func Split(order []string, id string) (before, after []string, found bool) {
	for i, other := range order {
		if other == id {
			return order[:i], order[i+1:], true
		}
	}

	return order, nil, false
}
