package entity

import (
	"time"

	"turnline/queue-gateway/internal/domain"
)

type Reservation struct {
	ID        string    `gorm:"primary_key;column:id"`
	CreatedAt time.Time `gorm:"column:created_at"`
	SlotTime  time.Time `gorm:"column:slot_time"`
}

func (Reservation) TableName() string {
	return "reservations"
}

func (r Reservation) ToDomain() domain.Reservation {
	return domain.Reservation{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.UTC(),
		SlotTime:  r.SlotTime.UTC(),
	}
}

func ReservationFromDomain(r domain.Reservation) Reservation {
	return Reservation{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.UTC(),
		SlotTime:  r.SlotTime.UTC(),
	}
}

type QueueEntry struct {
	ReservationID string `gorm:"primary_key;column:reservation_id"`
	OrderingKey   int64  `gorm:"column:ordering_key"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}
