package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/domain"
	"turnline/queue-gateway/internal/repository/entity"
)

// postgresQueue stores the order in queue_entries and the records in
// reservations. See migrations/postgres.
type postgresQueue struct {
	db *gorm.DB
}

func NewPostgresQueue(db *gorm.DB) *postgresQueue {
	return &postgresQueue{
		db: db,
	}
}

func (pq *postgresQueue) NextKey(ctx context.Context) (int64, error) {
	var key int64
	err := pq.db.WithContext(ctx).Raw("SELECT nextval('queue_ordering_key_seq')").Scan(&key).Error
	if err != nil {
		return 0, constant.NewStoreError("next key", err)
	}
	return key, nil
}

func (pq *postgresQueue) Append(ctx context.Context, id string, key int64) error {
	err := pq.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entity.QueueEntry{ReservationID: id, OrderingKey: key}).Error
	return constant.NewStoreError("append", err)
}

func (pq *postgresQueue) Range(ctx context.Context, start, stop int64, reverse bool) ([]string, error) {
	n, err := pq.Len(ctx)
	if err != nil {
		return nil, err
	}

	from, to, ok := normalizeRange(start, stop, n)
	if !ok {
		return []string{}, nil
	}

	order := "ordering_key ASC"
	if reverse {
		order = "ordering_key DESC"
	}

	var ids []string
	err = pq.db.WithContext(ctx).
		Model(&entity.QueueEntry{}).
		Order(order).
		Offset(int(from)).
		Limit(int(to - from + 1)).
		Pluck("reservation_id", &ids).Error
	if err != nil {
		return nil, constant.NewStoreError("range", err)
	}
	return ids, nil
}

func (pq *postgresQueue) All(ctx context.Context) ([]string, error) {
	var ids []string
	err := pq.db.WithContext(ctx).
		Model(&entity.QueueEntry{}).
		Order("ordering_key ASC").
		Pluck("reservation_id", &ids).Error
	if err != nil {
		return nil, constant.NewStoreError("list", err)
	}
	return ids, nil
}

func (pq *postgresQueue) Remove(ctx context.Context, id string) (bool, error) {
	res := pq.db.WithContext(ctx).Where("reservation_id = ?", id).Delete(&entity.QueueEntry{})
	if res.Error != nil {
		return false, constant.NewStoreError("remove", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (pq *postgresQueue) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := pq.db.WithContext(ctx).Model(&entity.QueueEntry{}).Count(&n).Error; err != nil {
		return 0, constant.NewStoreError("len", err)
	}
	return n, nil
}

func (pq *postgresQueue) Clear(ctx context.Context) ([]string, error) {
	var ids []string
	err := pq.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.QueueEntry{}).Order("ordering_key ASC").Pluck("reservation_id", &ids).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&entity.QueueEntry{}).Error
	})
	if err != nil {
		return nil, constant.NewStoreError("clear", err)
	}
	return ids, nil
}

func (pq *postgresQueue) Get(ctx context.Context, id string) (domain.Reservation, error) {
	var r entity.Reservation
	err := pq.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Reservation{}, constant.ReservationNotFoundErr
	}
	if err != nil {
		return domain.Reservation{}, constant.NewStoreError("get", err)
	}
	return r.ToDomain(), nil
}

func (pq *postgresQueue) Set(ctx context.Context, r domain.Reservation) error {
	row := entity.ReservationFromDomain(r)
	err := pq.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	return constant.NewStoreError("set", err)
}

func (pq *postgresQueue) Delete(ctx context.Context, id string) error {
	err := pq.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Reservation{}).Error
	return constant.NewStoreError("delete", err)
}
