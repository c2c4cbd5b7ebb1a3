package domain

import "time"

type Reservation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	SlotTime  time.Time `json:"slot_time"`
}

// Status is a reservation as seen by its owner at a given instant.
// Position is only meaningful when Served is false.
type Status struct {
	Reservation Reservation
	IsExpired   bool
	Served      bool
	Position    int
	CheckedAt   time.Time
}

// WaitEstimate is the wait a new entrant would face, in whole wait units.
type WaitEstimate struct {
	Units     int64
	CheckedAt time.Time
}

type ListOptions struct {
	Reverse bool
	Offset  int
	Limit   int
}

type CancelResult struct {
	ID      string
	Shifted int
}
