package reservation

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"turnline/queue-gateway/internal/domain"
	"turnline/queue-gateway/internal/queue"
)

type ReservationService struct {
	engine    *queue.Engine
	queue     domain.OrderedQueueStore
	records   domain.RecordStore
	locker    domain.Locker
	publisher domain.EventPublisher
	logger    *logrus.Logger
	waitUnit  time.Duration
	now       func() time.Time
	newID     func() string
}

type Option func(*ReservationService)

// WithClock replaces the wall clock used for every slot computation.
func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ReservationService) { s.newID = newID }
}

func WithPublisher(publisher domain.EventPublisher) Option {
	return func(s *ReservationService) { s.publisher = publisher }
}

func NewReservationService(
	engine *queue.Engine,
	queueStore domain.OrderedQueueStore,
	recordStore domain.RecordStore,
	locker domain.Locker,
	logger *logrus.Logger,
	waitUnit time.Duration,
	opts ...Option,
) *ReservationService {
	s := &ReservationService{
		engine:    engine,
		queue:     queueStore,
		records:   recordStore,
		locker:    locker,
		publisher: noopPublisher{},
		logger:    logger,
		waitUnit:  waitUnit,
		now:       time.Now,
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type noopPublisher struct{}

func (noopPublisher) Publish(domain.QueueEvent) {}
