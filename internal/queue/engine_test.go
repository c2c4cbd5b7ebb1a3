package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turnline/queue-gateway/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(2 * time.Minute)
	require.NoError(t, err)
	return e
}

func at(minutes float64) time.Time {
	return t0.Add(time.Duration(minutes * float64(time.Minute)))
}

func TestNewEngineRejectsNonPositiveDuration(t *testing.T) {
	_, err := NewEngine(0)
	assert.Error(t, err)

	_, err = NewEngine(-time.Second)
	assert.Error(t, err)
}

func TestAllocateEmptyQueue(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, t0, e.Allocate(nil, t0))
}

func TestAllocateAppendsAfterOpenTail(t *testing.T) {
	e := newTestEngine(t)
	tail := domain.Reservation{ID: "A", SlotTime: at(0)}

	assert.Equal(t, at(2), e.Allocate(&tail, at(1)))
	assert.Equal(t, at(2), e.Allocate(&tail, at(0)))
}

func TestAllocateResetsAfterDrain(t *testing.T) {
	e := newTestEngine(t)
	tail := domain.Reservation{ID: "A", SlotTime: at(0)}

	assert.Equal(t, at(5), e.Allocate(&tail, at(5)))
	// window closing exactly now is no longer in the future
	assert.Equal(t, at(2), e.Allocate(&tail, at(2)))
}

func TestAllocateIsNonDecreasing(t *testing.T) {
	e := newTestEngine(t)
	var tail *domain.Reservation
	now := t0
	prev := time.Time{}

	for i := 0; i < 20; i++ {
		slot := e.Allocate(tail, now)
		assert.False(t, slot.Before(prev), "entrant %d went backwards", i)
		assert.False(t, slot.Before(now))
		prev = slot
		tail = &domain.Reservation{SlotTime: slot}
		now = now.Add(time.Duration(i%4) * 45 * time.Second)
	}
}

func TestIsExpired(t *testing.T) {
	e := newTestEngine(t)

	assert.False(t, e.IsExpired(at(0), at(1)))
	assert.False(t, e.IsExpired(at(0), at(2)))
	assert.True(t, e.IsExpired(at(0), at(2).Add(time.Millisecond)))
	assert.False(t, e.IsExpired(at(4), at(0)))
}

func TestPositionCountsActivePredecessors(t *testing.T) {
	e := newTestEngine(t)
	a := domain.Reservation{ID: "A", SlotTime: at(0)}
	b := domain.Reservation{ID: "B", SlotTime: at(2)}

	pos, served := e.Position(b, []domain.Reservation{a}, at(1))
	assert.False(t, served)
	assert.Equal(t, 1, pos)
}

func TestPositionSkipsExpiredPredecessors(t *testing.T) {
	e := newTestEngine(t)
	a := domain.Reservation{ID: "A", SlotTime: at(0)}
	b := domain.Reservation{ID: "B", SlotTime: at(2)}
	c := domain.Reservation{ID: "C", SlotTime: at(4)}

	pos, served := e.Position(c, []domain.Reservation{a, b}, at(3))
	assert.False(t, served)
	assert.Equal(t, 1, pos)
}

func TestPositionPredecessorAtWindowEnd(t *testing.T) {
	e := newTestEngine(t)
	a := domain.Reservation{ID: "A", SlotTime: at(0)}
	b := domain.Reservation{ID: "B", SlotTime: at(2)}

	// A's window closes exactly now: still active, same rule as IsExpired
	pos, served := e.Position(b, []domain.Reservation{a}, at(2))
	assert.False(t, served)
	assert.Equal(t, 1, pos)

	pos, served = e.Position(b, []domain.Reservation{a}, at(2).Add(time.Millisecond))
	assert.False(t, served)
	assert.Zero(t, pos)
}

func TestPositionServed(t *testing.T) {
	e := newTestEngine(t)
	a := domain.Reservation{ID: "A", SlotTime: at(0)}

	pos, served := e.Position(a, nil, at(3))
	assert.True(t, served)
	assert.Zero(t, pos)

	pos, served = e.Position(a, nil, at(1))
	assert.False(t, served)
	assert.Zero(t, pos)
}

func TestPositionIncreasesAlongQueue(t *testing.T) {
	e := newTestEngine(t)
	queue := []domain.Reservation{
		{ID: "A", SlotTime: at(0)},
		{ID: "B", SlotTime: at(2)},
		{ID: "C", SlotTime: at(4)},
		{ID: "D", SlotTime: at(6)},
	}
	now := at(0.5)

	last := -1
	for i, r := range queue {
		pos, served := e.Position(r, queue[:i], now)
		require.False(t, served)
		assert.Greater(t, pos, last)
		last = pos
	}
}

func TestSplit(t *testing.T) {
	order := []string{"A", "B", "C", "D"}

	before, after, found := Split(order, "C")
	assert.True(t, found)
	assert.Equal(t, []string{"A", "B"}, before)
	assert.Equal(t, []string{"D"}, after)

	_, _, found = Split(order, "X")
	assert.False(t, found)
}

func TestReflowScenario(t *testing.T) {
	e := newTestEngine(t)
	b := domain.Reservation{ID: "B", SlotTime: at(2)}
	c := domain.Reservation{ID: "C", SlotTime: at(4)}

	shifted := e.Reflow(b, []domain.Reservation{c})
	require.Len(t, shifted, 1)
	assert.Equal(t, "C", shifted[0].ID)
	assert.Equal(t, at(2), shifted[0].SlotTime)
	// input untouched
	assert.Equal(t, at(4), c.SlotTime)
}

func TestReflowLeavesEarlierOrEqualSlots(t *testing.T) {
	e := newTestEngine(t)
	cancelled := domain.Reservation{ID: "X", SlotTime: at(4)}
	successors := []domain.Reservation{
		{ID: "S1", SlotTime: at(4)},
		{ID: "S2", SlotTime: at(3)},
		{ID: "S3", SlotTime: at(6)},
		{ID: "S4", SlotTime: at(8)},
	}

	shifted := e.Reflow(cancelled, successors)
	require.Len(t, shifted, 2)
	assert.Equal(t, "S3", shifted[0].ID)
	assert.Equal(t, at(4), shifted[0].SlotTime)
	assert.Equal(t, "S4", shifted[1].ID)
	assert.Equal(t, at(6), shifted[1].SlotTime)
}

func TestEstimateWait(t *testing.T) {
	e := newTestEngine(t)
	tail := domain.Reservation{SlotTime: at(4)}

	assert.Equal(t, int64(0), e.EstimateWait(nil, at(0), time.Minute))
	assert.Equal(t, int64(6), e.EstimateWait(&tail, at(0), time.Minute))
	assert.Equal(t, int64(6), e.EstimateWait(&tail, at(0).Add(time.Second), time.Minute))
	assert.Equal(t, int64(1), e.EstimateWait(&tail, at(5.9), time.Minute))
	assert.Equal(t, int64(0), e.EstimateWait(&tail, at(6), time.Minute))
	assert.Equal(t, int64(0), e.EstimateWait(&tail, at(9), time.Minute))
}
