package domain

import "context"

// OrderedQueueStore keeps reservation ids in insertion order.
type OrderedQueueStore interface {
	// NextKey returns a strictly increasing ordering key for Append.
	NextKey(ctx context.Context) (int64, error)
	Append(ctx context.Context, id string, key int64) error
	// Range follows ZRANGE index semantics: stop of -1 means the last entry.
	Range(ctx context.Context, start, stop int64, reverse bool) ([]string, error)
	All(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, id string) (bool, error)
	Len(ctx context.Context) (int64, error)
	Clear(ctx context.Context) ([]string, error)
}

// RecordStore returns constant.ReservationNotFoundErr from Get for unknown ids.
type RecordStore interface {
	Get(ctx context.Context, id string) (Reservation, error)
	Set(ctx context.Context, r Reservation) error
	Delete(ctx context.Context, id string) error
}

// Locker serialises writers of a single queue.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

type EventPublisher interface {
	Publish(event QueueEvent)
}
