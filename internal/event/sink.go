package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/domain"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type eventWriter interface {
	InsertEvents(ctx context.Context, events []domain.QueueEvent) error
}

// Sink moves queue events from kafka into the analytics store in batches.
type Sink struct {
	reader     messageReader
	writer     eventWriter
	logger     *logrus.Logger
	batchSize  int
	flushEvery time.Duration
	backoff    time.Duration
}

func NewSink(reader messageReader, writer eventWriter, logger *logrus.Logger) *Sink {
	return &Sink{
		reader:     reader,
		writer:     writer,
		logger:     logger,
		batchSize:  constant.EventBatchSize,
		flushEvery: constant.EventFlushInterval,
		backoff:    constant.KafkaRetryBackoff,
	}
}

// Run blocks until ctx is done. Buffered events are flushed before it returns.
func (s *Sink) Run(ctx context.Context, readers int) {
	if readers < 1 {
		readers = 1
	}

	events := make(chan domain.QueueEvent, s.batchSize*2)

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()
			s.read(ctx, readerID, events)
		}(i)
	}
	s.logger.Infof("started %d queue event readers", readers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.write(ctx, events)
	}()

	wg.Wait()
	close(events)
	<-done
	s.logger.Info("queue event sink stopped")
}

func (s *Sink) read(ctx context.Context, readerID int, out chan<- domain.QueueEvent) {
	for {
		m, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Errorf("reader %d: read error: %v", readerID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.backoff):
			}
			continue
		}

		var e domain.QueueEvent
		if err := json.Unmarshal(m.Value, &e); err != nil {
			s.logger.Errorf("reader %d: failed to unmarshal event: %v, raw: %s", readerID, err, string(m.Value))
			continue
		}

		select {
		case out <- e:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sink) write(ctx context.Context, in <-chan domain.QueueEvent) {
	batch := make([]domain.QueueEvent, 0, s.batchSize)
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constant.KafkaWriteTimeout)
		defer cancel()

		if err := s.writer.InsertEvents(insertCtx, batch); err != nil {
			s.logger.Errorf("failed to insert %d queue events: %v", len(batch), err)
		} else {
			s.logger.Debugf("flushed %d queue events", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
