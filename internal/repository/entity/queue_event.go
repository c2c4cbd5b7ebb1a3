package entity

import (
	"time"

	"turnline/queue-gateway/internal/domain"
)

type QueueEventLog struct {
	Type          string    `gorm:"column:type"`
	ReservationID string    `gorm:"column:reservation_id"`
	SlotTime      time.Time `gorm:"column:slot_time"`
	Shifted       int32     `gorm:"column:shifted"`
	Removed       int32     `gorm:"column:removed"`
	OccurredAt    time.Time `gorm:"column:occurred_at"`
	Timestamp     time.Time `gorm:"column:timestamp"`
}

func (QueueEventLog) TableName() string {
	return "queue_events"
}

func QueueEventLogFromDomain(e domain.QueueEvent, receivedAt time.Time) QueueEventLog {
	return QueueEventLog{
		Type:          string(e.Type),
		ReservationID: e.ReservationID,
		SlotTime:      e.SlotTime,
		Shifted:       int32(e.Shifted),
		Removed:       int32(e.Removed),
		OccurredAt:    e.OccurredAt,
		Timestamp:     receivedAt,
	}
}
