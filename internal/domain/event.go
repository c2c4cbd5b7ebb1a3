package domain

import "time"

type EventType string

const (
	EventCreated   EventType = "created"
	EventCancelled EventType = "cancelled"
	EventAdvanced  EventType = "advanced"
	EventCleared   EventType = "cleared"
)

type QueueEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id,omitempty"`
	SlotTime      time.Time `json:"slot_time,omitempty"`
	Shifted       int       `json:"shifted,omitempty"`
	Removed       int       `json:"removed,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
