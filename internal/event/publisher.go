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

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher ships queue events to kafka from a small pool of workers.
// Publish never blocks the request path: when the buffer is full the event
// is dropped and logged.
type KafkaPublisher struct {
	writer   messageWriter
	logger   *logrus.Logger
	workChan chan domain.QueueEvent
	backoff  time.Duration
	wg       sync.WaitGroup
	once     sync.Once
	mu       sync.RWMutex
	closed   bool
}

func NewKafkaPublisher(writer messageWriter, logger *logrus.Logger, workers int) *KafkaPublisher {
	if workers < 1 {
		workers = 1
	}

	p := &KafkaPublisher{
		writer:   writer,
		logger:   logger,
		workChan: make(chan domain.QueueEvent, constant.KafkaWorkerBufSize),
		backoff:  constant.KafkaRetryBackoff,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.produce(i)
	}
	logger.Infof("started %d queue event producer workers", workers)

	return p
}

func (p *KafkaPublisher) Publish(e domain.QueueEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warnf("publisher stopped, dropping %s event for %q", e.Type, e.ReservationID)
		return
	}

	select {
	case p.workChan <- e:
	default:
		p.logger.Warnf("event buffer full, dropping %s event for %q", e.Type, e.ReservationID)
	}
}

// Stop drains buffered events and waits for the workers. Later events are dropped.
func (p *KafkaPublisher) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.workChan)
		p.mu.Unlock()

		p.wg.Wait()
	})
}

func (p *KafkaPublisher) produce(workerID int) {
	defer p.wg.Done()

	for e := range p.workChan {
		payload, err := json.Marshal(e)
		if err != nil {
			p.logger.Errorf("event worker %d: failed to marshal event: %v", workerID, err)
			continue
		}

		key := e.ReservationID
		if key == "" {
			key = string(e.Type)
		}

		success := false
		for attempt := 0; attempt < constant.KafkaWriteRetries; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), constant.KafkaWriteTimeout)
			err = p.writer.WriteMessages(ctx, kafka.Message{
				Key:   []byte(key),
				Value: payload,
				Time:  e.OccurredAt,
			})
			cancel()
			if err == nil {
				success = true
				break
			}
			p.logger.Warnf("event worker %d: write attempt %d failed: %v", workerID, attempt+1, err)
			time.Sleep(p.backoff * time.Duration(attempt+1))
		}

		if !success {
			p.logger.WithFields(logrus.Fields{
				"type":           e.Type,
				"reservation_id": e.ReservationID,
			}).Error("queue event lost after retries")
		}
	}
}
