package reservation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/domain"
	"turnline/queue-gateway/internal/queue"
	"turnline/queue-gateway/internal/repository"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(minutes float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t0.Add(time.Duration(minutes * float64(time.Minute)))
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event domain.QueueEvent) {
	m.Called(event)
}

// flakyRecords fails exactly the failAt-th call to Set.
type flakyRecords struct {
	domain.RecordStore
	mu     sync.Mutex
	failAt int
	writes int
}

func (f *flakyRecords) Set(ctx context.Context, r domain.Reservation) error {
	f.mu.Lock()
	f.writes++
	fail := f.writes == f.failAt
	f.mu.Unlock()
	if fail {
		return constant.NewStoreError("set", errors.New("connection reset"))
	}
	return f.RecordStore.Set(ctx, r)
}

type fixture struct {
	svc     *ReservationService
	store   interface {
		domain.OrderedQueueStore
		domain.RecordStore
	}
	clock *fakeClock
	pub   *MockPublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	engine, err := queue.NewEngine(2 * time.Minute)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	store := repository.NewMemoryQueue()
	clock := &fakeClock{now: t0}
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything).Return()

	seq := 0
	var idMu sync.Mutex
	base := []Option{
		WithClock(clock.Now),
		WithPublisher(pub),
		WithIDGenerator(func() string {
			idMu.Lock()
			defer idMu.Unlock()
			id := string(rune('A' + seq))
			seq++
			return id
		}),
	}

	svc := NewReservationService(engine, store, store, repository.NewLocalLocker(5*time.Second), logger, time.Minute, append(base, opts...)...)
	return &fixture{svc: svc, store: store, clock: clock, pub: pub}
}

func (f *fixture) create(t *testing.T) domain.Reservation {
	t.Helper()
	r, err := f.svc.Create(context.Background())
	require.NoError(t, err)
	return r
}

func (f *fixture) slot(t *testing.T, id string) time.Time {
	t.Helper()
	r, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return r.SlotTime
}

func at(minutes float64) time.Time {
	return t0.Add(time.Duration(minutes * float64(time.Minute)))
}

func TestCreateChainsSlots(t *testing.T) {
	f := newFixture(t)

	a := f.create(t)
	b := f.create(t)
	c := f.create(t)

	assert.Equal(t, at(0), a.SlotTime)
	assert.Equal(t, at(2), b.SlotTime)
	assert.Equal(t, at(4), c.SlotTime)
	assert.Equal(t, t0, c.CreatedAt)

	ids, err := f.store.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids)

	f.pub.AssertNumberOfCalls(t, "Publish", 3)
}

func TestCreateAfterDrain(t *testing.T) {
	f := newFixture(t)

	a := f.create(t)
	assert.Equal(t, at(0), a.SlotTime)

	f.clock.Set(5)
	b := f.create(t)
	assert.Equal(t, at(5), b.SlotTime)
}

func TestCreateSkipsOrphanTail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t)
	require.NoError(t, f.store.Append(ctx, "ghost", 100))

	f.clock.Set(1)
	b := f.create(t)
	assert.Equal(t, at(2), b.SlotTime)
}

func TestConcurrentCreateNeverCollides(t *testing.T) {
	var (
		mu sync.Mutex
		n  int
	)
	f := newFixture(t, WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("R%02d", n)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	order, err := f.store.All(context.Background())
	require.NoError(t, err)
	require.Len(t, order, 20)

	for i, id := range order {
		assert.Equal(t, at(float64(2*i)), f.slot(t, id), "entry %d (%s)", i, id)
	}
}

func TestGetPosition(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)

	f.clock.Set(1)
	status, err := f.svc.Get(context.Background(), "B")
	require.NoError(t, err)
	assert.False(t, status.Served)
	assert.False(t, status.IsExpired)
	assert.Equal(t, 1, status.Position)
	assert.Equal(t, "B", status.Reservation.ID)

	status, err = f.svc.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 0, status.Position)
	assert.False(t, status.Served)
}

func TestGetIgnoresExpiredPredecessors(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)
	f.create(t)

	f.clock.Set(3)
	status, err := f.svc.Get(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Position)
}

func TestGetServed(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	f.clock.Set(2.5)
	status, err := f.svc.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.True(t, status.Served)
	assert.True(t, status.IsExpired)
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "nope")
	assert.True(t, errors.Is(err, constant.ReservationNotFoundErr))

	// record without a queue entry
	require.NoError(t, f.store.Set(ctx, domain.Reservation{ID: "orphan", SlotTime: t0}))
	_, err = f.svc.Get(ctx, "orphan")
	assert.True(t, errors.Is(err, constant.ReservationNotFoundErr))
}

func TestGetSkipsOrphanPredecessors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Append(ctx, "ghost", 0))
	f.create(t)
	f.create(t)

	status, err := f.svc.Get(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Position)
}

func TestCancelReflowsSuccessors(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)
	f.create(t)

	res, err := f.svc.Cancel(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "B", res.ID)
	assert.Equal(t, 1, res.Shifted)

	assert.Equal(t, at(0), f.slot(t, "A"))
	assert.Equal(t, at(2), f.slot(t, "C"))

	_, err = f.store.Get(context.Background(), "B")
	assert.True(t, errors.Is(err, constant.ReservationNotFoundErr))

	ids, err := f.store.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, ids)

	f.pub.AssertCalled(t, "Publish", mock.MatchedBy(func(e domain.QueueEvent) bool {
		return e.Type == domain.EventCancelled && e.ReservationID == "B" && e.Shifted == 1
	}))
}

func TestCancelShiftsEverySuccessor(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.create(t)
	}

	res, err := f.svc.Cancel(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Shifted)

	assert.Equal(t, at(0), f.slot(t, "A"))
	assert.Equal(t, at(2), f.slot(t, "C"))
	assert.Equal(t, at(4), f.slot(t, "D"))
	assert.Equal(t, at(6), f.slot(t, "E"))
}

func TestCancelLeavesEarlierOrEqualSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t)
	f.create(t)
	f.create(t)

	// C shares B's slot, so the gap left by B does not move it
	require.NoError(t, f.store.Set(ctx, domain.Reservation{ID: "C", CreatedAt: t0, SlotTime: at(2)}))

	res, err := f.svc.Cancel(ctx, "B")
	require.NoError(t, err)
	assert.Zero(t, res.Shifted)
	assert.Equal(t, at(2), f.slot(t, "C"))
}

func TestCancelLastEntry(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)

	res, err := f.svc.Cancel(context.Background(), "B")
	require.NoError(t, err)
	assert.Zero(t, res.Shifted)
	assert.Equal(t, at(0), f.slot(t, "A"))
}

func TestCancelNotFoundMutatesNothing(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)

	_, err := f.svc.Cancel(context.Background(), "Z")
	assert.True(t, errors.Is(err, constant.ReservationNotFoundErr))

	ids, err := f.store.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids)
	assert.Equal(t, at(2), f.slot(t, "B"))
}

func TestCancelRollsBackPartialReflow(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		f.create(t)
	}

	flaky := &flakyRecords{RecordStore: f.store, failAt: 2}
	f.svc.records = flaky

	_, err := f.svc.Cancel(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, constant.StoreUnavailableErr))

	assert.Equal(t, at(0), f.slot(t, "A"))
	assert.Equal(t, at(2), f.slot(t, "B"))
	assert.Equal(t, at(4), f.slot(t, "C"))
	assert.Equal(t, at(6), f.slot(t, "D"))

	ids, err := f.store.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids)
}

func TestCancelRunsToCompletionWhenCallerGoesAway(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)
	f.create(t)

	ctx, cancel := context.WithCancel(context.Background())
	unlockCalled := make(chan struct{})
	f.svc.locker = lockerFunc(func(context.Context) (func(), error) {
		cancel()
		return func() { close(unlockCalled) }, nil
	})

	_, err := f.svc.Cancel(ctx, "A")
	require.NoError(t, err)
	<-unlockCalled

	assert.Equal(t, at(0), f.slot(t, "B"))
	assert.Equal(t, at(2), f.slot(t, "C"))
}

type lockerFunc func(context.Context) (func(), error)

func (l lockerFunc) Lock(ctx context.Context) (func(), error) { return l(ctx) }

func TestBusyQueue(t *testing.T) {
	f := newFixture(t)
	f.svc.locker = lockerFunc(func(context.Context) (func(), error) {
		return nil, constant.QueueBusyErr
	})

	_, err := f.svc.Create(context.Background())
	assert.True(t, errors.Is(err, constant.QueueBusyErr))
}

func TestAdvanceTurn(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)
	f.create(t)

	id, err := f.svc.AdvanceTurn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", id)

	ids, err := f.store.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, ids)

	// no reflow on advancement
	assert.Equal(t, at(2), f.slot(t, "B"))
	assert.Equal(t, at(4), f.slot(t, "C"))

	_, err = f.store.Get(context.Background(), "A")
	assert.True(t, errors.Is(err, constant.ReservationNotFoundErr))
}

func TestAdvanceTurnEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AdvanceTurn(context.Background())
	assert.True(t, errors.Is(err, constant.EmptyQueueErr))
	f.pub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestEstimateWait(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wait, err := f.svc.EstimateWait(ctx)
	require.NoError(t, err)
	assert.Zero(t, wait.Units)

	f.create(t)
	f.create(t)
	f.create(t)

	wait, err = f.svc.EstimateWait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), wait.Units)

	f.clock.Set(0.5)
	wait, err = f.svc.EstimateWait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), wait.Units)

	f.clock.Set(7)
	wait, err = f.svc.EstimateWait(ctx)
	require.NoError(t, err)
	assert.Zero(t, wait.Units)
	assert.Equal(t, at(7), wait.CheckedAt)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		f.create(t)
	}
	require.NoError(t, f.store.Append(ctx, "ghost", 100))

	all, total, err := f.svc.List(ctx, domain.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"A", "B", "C", "D"}, reservationIDs(all))

	page, _, err := f.svc.List(ctx, domain.ListOptions{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, reservationIDs(page))

	latest, _, err := f.svc.List(ctx, domain.ListOptions{Reverse: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, reservationIDs(latest))
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t)
	f.create(t)

	n, err := f.svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := f.store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = f.store.Get(ctx, "A")
	assert.True(t, errors.Is(err, constant.ReservationNotFoundErr))

	// queue starts over at the current time
	f.clock.Set(1)
	c := f.create(t)
	assert.Equal(t, at(1), c.SlotTime)
}

func reservationIDs(rs []domain.Reservation) []string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	return ids
}
