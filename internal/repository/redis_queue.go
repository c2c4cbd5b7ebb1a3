package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/domain"
)

// redisQueue keeps the queue order in a sorted set scored by an INCR counter
// and every reservation as a JSON string next to it.
type redisQueue struct {
	redisClient *redis.Client
	prefix      string
}

func NewRedisQueue(redisClient *redis.Client, prefix string) *redisQueue {
	return &redisQueue{
		redisClient: redisClient,
		prefix:      prefix,
	}
}

func (rq *redisQueue) key(name string) string {
	if rq.prefix == "" {
		return name
	}
	return rq.prefix + ":" + name
}

func (rq *redisQueue) queueKey() string { return rq.key(constant.RedisQueueKey) }

func (rq *redisQueue) recordKey(id string) string {
	return rq.key(constant.RedisRecordPrefix + id)
}

func (rq *redisQueue) NextKey(ctx context.Context) (int64, error) {
	n, err := rq.redisClient.Incr(ctx, rq.key(constant.RedisSeqKey)).Result()
	if err != nil {
		return 0, constant.NewStoreError("next key", err)
	}
	return n, nil
}

func (rq *redisQueue) Append(ctx context.Context, id string, key int64) error {
	err := rq.redisClient.ZAdd(ctx, rq.queueKey(), redis.Z{
		Score:  float64(key),
		Member: id,
	}).Err()
	return constant.NewStoreError("append", err)
}

func (rq *redisQueue) Range(ctx context.Context, start, stop int64, reverse bool) ([]string, error) {
	var (
		ids []string
		err error
	)
	if reverse {
		ids, err = rq.redisClient.ZRevRange(ctx, rq.queueKey(), start, stop).Result()
	} else {
		ids, err = rq.redisClient.ZRange(ctx, rq.queueKey(), start, stop).Result()
	}
	if err != nil {
		return nil, constant.NewStoreError("range", err)
	}
	return ids, nil
}

func (rq *redisQueue) All(ctx context.Context) ([]string, error) {
	return rq.Range(ctx, 0, -1, false)
}

func (rq *redisQueue) Remove(ctx context.Context, id string) (bool, error) {
	n, err := rq.redisClient.ZRem(ctx, rq.queueKey(), id).Result()
	if err != nil {
		return false, constant.NewStoreError("remove", err)
	}
	return n > 0, nil
}

func (rq *redisQueue) Len(ctx context.Context) (int64, error) {
	n, err := rq.redisClient.ZCard(ctx, rq.queueKey()).Result()
	if err != nil {
		return 0, constant.NewStoreError("len", err)
	}
	return n, nil
}

func (rq *redisQueue) Clear(ctx context.Context) ([]string, error) {
	ids, err := rq.All(ctx)
	if err != nil {
		return nil, err
	}

	if err := rq.redisClient.Del(ctx, rq.queueKey()).Err(); err != nil {
		return nil, constant.NewStoreError("clear", err)
	}
	return ids, nil
}

func (rq *redisQueue) Get(ctx context.Context, id string) (domain.Reservation, error) {
	data, err := rq.redisClient.Get(ctx, rq.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Reservation{}, constant.ReservationNotFoundErr
	}
	if err != nil {
		return domain.Reservation{}, constant.NewStoreError("get", err)
	}

	var r domain.Reservation
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Reservation{}, constant.NewStoreError("get", errors.Wrapf(err, "corrupt record %s", id))
	}
	return r, nil
}

func (rq *redisQueue) Set(ctx context.Context, r domain.Reservation) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to marshal reservation")
	}

	// records live until cancelled or served
	return constant.NewStoreError("set", rq.redisClient.Set(ctx, rq.recordKey(r.ID), data, 0).Err())
}

func (rq *redisQueue) Delete(ctx context.Context, id string) error {
	return constant.NewStoreError("delete", rq.redisClient.Del(ctx, rq.recordKey(id)).Err())
}
