package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"turnline/queue-gateway/internal/domain"
	"turnline/queue-gateway/internal/repository/entity"
)

type eventLogRepository struct {
	clickhouse *gorm.DB
}

func NewEventLogRepository(clickhouse *gorm.DB) *eventLogRepository {
	return &eventLogRepository{
		clickhouse: clickhouse,
	}
}

func (er *eventLogRepository) InsertEvents(ctx context.Context, events []domain.QueueEvent) error {
	if len(events) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]entity.QueueEventLog, len(events))
	for i, e := range events {
		rows[i] = entity.QueueEventLogFromDomain(e, now)
	}

	if err := er.clickhouse.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return errors.Wrap(err, "failed to insert queue events")
	}
	return nil
}
