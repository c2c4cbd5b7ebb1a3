package repository

import (
	"context"
	"sync"
	"time"

	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/domain"
)

type memoryEntry struct {
	id  string
	key int64
}

// memoryQueue is a process-local queue for tests and single-instance runs.
type memoryQueue struct {
	mu      sync.Mutex
	seq     int64
	entries []memoryEntry
	records map[string]domain.Reservation
}

func NewMemoryQueue() *memoryQueue {
	return &memoryQueue{
		entries: make([]memoryEntry, 0),
		records: make(map[string]domain.Reservation),
	}
}

func (q *memoryQueue) NextKey(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	return q.seq, nil
}

func (q *memoryQueue) Append(_ context.Context, id string, key int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.id == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}

	// keep sorted by key; appends are almost always at the end
	i := len(q.entries)
	for i > 0 && q.entries[i-1].key > key {
		i--
	}
	q.entries = append(q.entries, memoryEntry{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = memoryEntry{id: id, key: key}
	return nil
}

func (q *memoryQueue) Range(_ context.Context, start, stop int64, reverse bool) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	from, to, ok := normalizeRange(start, stop, int64(len(q.entries)))
	if !ok {
		return []string{}, nil
	}

	ids := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		idx := i
		if reverse {
			idx = int64(len(q.entries)) - 1 - i
		}
		ids = append(ids, q.entries[idx].id)
	}
	return ids, nil
}

func (q *memoryQueue) All(ctx context.Context) ([]string, error) {
	return q.Range(ctx, 0, -1, false)
}

func (q *memoryQueue) Remove(_ context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.id == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (q *memoryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.entries)), nil
}

func (q *memoryQueue) Clear(_ context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(q.entries))
	for _, e := range q.entries {
		ids = append(ids, e.id)
	}
	q.entries = q.entries[:0]
	return ids, nil
}

func (q *memoryQueue) Get(_ context.Context, id string) (domain.Reservation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.records[id]
	if !ok {
		return domain.Reservation{}, constant.ReservationNotFoundErr
	}
	return r, nil
}

func (q *memoryQueue) Set(_ context.Context, r domain.Reservation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records[r.ID] = r
	return nil
}

func (q *memoryQueue) Delete(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.records, id)
	return nil
}

// localLocker serialises writers inside one process only.
type localLocker struct {
	sem  chan struct{}
	wait time.Duration
}

func NewLocalLocker(wait time.Duration) *localLocker {
	return &localLocker{
		sem:  make(chan struct{}, 1),
		wait: wait,
	}
}

func (l *localLocker) Lock(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
	case <-timer.C:
		return nil, constant.QueueBusyErr
	case <-ctx.Done():
		return nil, constant.QueueBusyErr
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.sem })
	}, nil
}

// normalizeRange maps ZRANGE style indexes onto [from, to] of a list of n
// entries.
func normalizeRange(start, stop, n int64) (from, to int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
