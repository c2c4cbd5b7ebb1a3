package reservation

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/domain"
	"turnline/queue-gateway/internal/queue"
)

func (rs *ReservationService) Create(ctx context.Context) (domain.Reservation, error) {
	unlock, err := rs.locker.Lock(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	defer unlock()

	tail, err := rs.tail(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}

	now := rs.now().UTC()
	r := domain.Reservation{
		ID:        rs.newID(),
		CreatedAt: now,
		SlotTime:  rs.engine.Allocate(tail, now),
	}

	key, err := rs.queue.NextKey(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}

	if err := rs.records.Set(ctx, r); err != nil {
		return domain.Reservation{}, err
	}

	if err := rs.queue.Append(ctx, r.ID, key); err != nil {
		if delErr := rs.records.Delete(context.WithoutCancel(ctx), r.ID); delErr != nil {
			rs.logger.Errorf("failed to drop unqueued reservation %s: %v", r.ID, delErr)
		}
		return domain.Reservation{}, err
	}

	rs.logger.WithFields(logrus.Fields{
		"reservation_id": r.ID,
		"slot_time":      r.SlotTime,
	}).Info("reservation created")

	rs.publisher.Publish(domain.QueueEvent{
		Type:          domain.EventCreated,
		ReservationID: r.ID,
		SlotTime:      r.SlotTime,
		OccurredAt:    now,
	})

	return r, nil
}

// Get reports the reservation together with its place in the queue.
// Records whose id is no longer queued are reported as not found.
func (rs *ReservationService) Get(ctx context.Context, id string) (domain.Status, error) {
	r, err := rs.records.Get(ctx, id)
	if err != nil {
		return domain.Status{}, err
	}

	order, err := rs.queue.All(ctx)
	if err != nil {
		return domain.Status{}, err
	}

	before, _, found := queue.Split(order, id)
	if !found {
		return domain.Status{}, constant.ReservationNotFoundErr
	}

	now := rs.now().UTC()
	status := domain.Status{Reservation: r, CheckedAt: now}

	if rs.engine.IsExpired(r.SlotTime, now) {
		status.IsExpired = true
		status.Served = true
		return status, nil
	}

	predecessors, err := rs.load(ctx, before)
	if err != nil {
		return domain.Status{}, err
	}

	status.Position, status.Served = rs.engine.Position(r, predecessors, now)
	status.IsExpired = status.Served

	return status, nil
}

func (rs *ReservationService) List(ctx context.Context, opts domain.ListOptions) ([]domain.Reservation, int64, error) {
	total, err := rs.queue.Len(ctx)
	if err != nil {
		return nil, 0, err
	}

	start := int64(opts.Offset)
	if start < 0 {
		start = 0
	}
	stop := int64(-1)
	if opts.Limit > 0 {
		stop = start + int64(opts.Limit) - 1
	}

	ids, err := rs.queue.Range(ctx, start, stop, opts.Reverse)
	if err != nil {
		return nil, 0, err
	}

	reservations, err := rs.load(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	return reservations, total, nil
}

// Cancel removes id and moves every later slot one slot duration earlier.
// Once the lock is held the operation ignores cancellation of ctx; a
// half-applied reflow is rolled back before an error is returned.
func (rs *ReservationService) Cancel(ctx context.Context, id string) (domain.CancelResult, error) {
	unlock, err := rs.locker.Lock(ctx)
	if err != nil {
		return domain.CancelResult{}, err
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constant.ReflowTimeout)
	defer cancel()

	cancelled, err := rs.records.Get(ctx, id)
	if err != nil {
		return domain.CancelResult{}, err
	}

	order, err := rs.queue.All(ctx)
	if err != nil {
		return domain.CancelResult{}, err
	}

	_, after, found := queue.Split(order, id)
	if !found {
		return domain.CancelResult{}, constant.ReservationNotFoundErr
	}

	successors, err := rs.load(ctx, after)
	if err != nil {
		return domain.CancelResult{}, err
	}

	shifted := rs.engine.Reflow(cancelled, successors)

	original := make(map[string]domain.Reservation, len(successors))
	for _, s := range successors {
		original[s.ID] = s
	}

	written := make([]domain.Reservation, 0, len(shifted))
	for _, s := range shifted {
		if err := rs.records.Set(ctx, s); err != nil {
			rs.restore(ctx, written, original)
			return domain.CancelResult{}, errors.Wrapf(err, "reflow after cancelling %s", id)
		}
		written = append(written, s)
	}

	if _, err := rs.queue.Remove(ctx, id); err != nil {
		rs.restore(ctx, written, original)
		return domain.CancelResult{}, err
	}

	if err := rs.records.Delete(ctx, id); err != nil {
		// the id is already out of the queue, so the record is unreachable
		rs.logger.Errorf("failed to delete cancelled reservation %s: %v", id, err)
	}

	now := rs.now().UTC()
	rs.logger.WithFields(logrus.Fields{
		"reservation_id": id,
		"slot_time":      cancelled.SlotTime,
		"shifted":        len(shifted),
	}).Info("reservation cancelled")

	rs.publisher.Publish(domain.QueueEvent{
		Type:          domain.EventCancelled,
		ReservationID: id,
		SlotTime:      cancelled.SlotTime,
		Shifted:       len(shifted),
		OccurredAt:    now,
	})

	return domain.CancelResult{ID: id, Shifted: len(shifted)}, nil
}

// AdvanceTurn pops the head of the queue. It is not idempotent.
func (rs *ReservationService) AdvanceTurn(ctx context.Context) (string, error) {
	unlock, err := rs.locker.Lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()

	ids, err := rs.queue.Range(ctx, 0, 0, false)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", constant.EmptyQueueErr
	}

	id := ids[0]
	if _, err := rs.queue.Remove(ctx, id); err != nil {
		return "", err
	}

	if err := rs.records.Delete(context.WithoutCancel(ctx), id); err != nil {
		rs.logger.Errorf("failed to delete served reservation %s: %v", id, err)
	}

	rs.logger.WithField("reservation_id", id).Info("turn advanced")

	rs.publisher.Publish(domain.QueueEvent{
		Type:          domain.EventAdvanced,
		ReservationID: id,
		OccurredAt:    rs.now().UTC(),
	})

	return id, nil
}

// EstimateWait returns the whole wait units until the current tail's slot closes.
func (rs *ReservationService) EstimateWait(ctx context.Context) (domain.WaitEstimate, error) {
	tail, err := rs.tail(ctx)
	if err != nil {
		return domain.WaitEstimate{}, err
	}

	now := rs.now().UTC()
	return domain.WaitEstimate{
		Units:     rs.engine.EstimateWait(tail, now, rs.waitUnit),
		CheckedAt: now,
	}, nil
}

// Clear drops every queued reservation and returns how many were queued.
func (rs *ReservationService) Clear(ctx context.Context) (int, error) {
	unlock, err := rs.locker.Lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constant.ReflowTimeout)
	defer cancel()

	ids, err := rs.queue.Clear(ctx)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, id := range ids {
		if err := rs.records.Delete(ctx, id); err != nil {
			failed++
			rs.logger.Warnf("failed to delete cleared reservation %s: %v", id, err)
		}
	}

	rs.logger.WithFields(logrus.Fields{
		"removed":        len(ids),
		"orphan_records": failed,
	}).Info("queue cleared")

	rs.publisher.Publish(domain.QueueEvent{
		Type:       domain.EventCleared,
		Removed:    len(ids),
		OccurredAt: rs.now().UTC(),
	})

	return len(ids), nil
}

// tail returns the newest queued reservation that still has a record, or nil.
func (rs *ReservationService) tail(ctx context.Context) (*domain.Reservation, error) {
	ids, err := rs.queue.Range(ctx, 0, 0, true)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	r, err := rs.records.Get(ctx, ids[0])
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, constant.ReservationNotFoundErr) {
		return nil, err
	}

	// newest id is an orphan, walk back to the first one with a record
	ids, err = rs.queue.Range(ctx, 1, -1, true)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		r, err := rs.records.Get(ctx, id)
		if errors.Is(err, constant.ReservationNotFoundErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &r, nil
	}

	return nil, nil
}

// load fetches records for ids in order, skipping ids without a record.
func (rs *ReservationService) load(ctx context.Context, ids []string) ([]domain.Reservation, error) {
	reservations := make([]domain.Reservation, 0, len(ids))
	for _, id := range ids {
		r, err := rs.records.Get(ctx, id)
		if errors.Is(err, constant.ReservationNotFoundErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}

	return reservations, nil
}

func (rs *ReservationService) restore(ctx context.Context, written []domain.Reservation, original map[string]domain.Reservation) {
	for _, w := range written {
		if err := rs.records.Set(ctx, original[w.ID]); err != nil {
			rs.logger.Errorf("CRITICAL: failed to restore slot of %s after aborted reflow: %v", w.ID, err)
		}
	}
}
