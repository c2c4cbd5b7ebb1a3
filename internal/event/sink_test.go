package event

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turnline/queue-gateway/internal/domain"
)

type chanReader struct {
	messages chan kafka.Message
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-r.messages:
		return m, nil
	}
}

type recordingSink struct {
	mu      sync.Mutex
	fail    bool
	batches [][]domain.QueueEvent
}

func (s *recordingSink) InsertEvents(_ context.Context, events []domain.QueueEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		s.fail = false
		return errors.New("clickhouse: connection reset")
	}
	s.batches = append(s.batches, append([]domain.QueueEvent(nil), events...))
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func message(t *testing.T, e domain.QueueEvent) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(e)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(e.ReservationID), Value: payload}
}

func TestSinkBatchesEvents(t *testing.T) {
	logger, hook := test.NewNullLogger()
	reader := &chanReader{messages: make(chan kafka.Message, 10)}
	out := &recordingSink{}

	s := NewSink(reader, out, logger)
	s.batchSize = 2
	s.flushEvery = 10 * time.Millisecond

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	reader.messages <- message(t, domain.QueueEvent{Type: domain.EventCreated, ReservationID: "A", OccurredAt: at})
	reader.messages <- kafka.Message{Value: []byte("{not json")}
	reader.messages <- message(t, domain.QueueEvent{Type: domain.EventCreated, ReservationID: "B", OccurredAt: at})
	reader.messages <- message(t, domain.QueueEvent{Type: domain.EventCancelled, ReservationID: "A", Shifted: 1, OccurredAt: at})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 2)
		close(done)
	}()

	assert.Eventually(t, func() bool { return out.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sink did not stop")
	}

	ids := map[string]int{}
	for _, b := range out.batches {
		assert.LessOrEqual(t, len(b), 2)
		for _, e := range b {
			ids[e.ReservationID]++
		}
	}
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, ids)

	var unmarshalErrors int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			unmarshalErrors++
		}
	}
	assert.Equal(t, 1, unmarshalErrors)
}

func TestSinkKeepsRunningAfterInsertFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	reader := &chanReader{messages: make(chan kafka.Message, 10)}
	out := &recordingSink{fail: true}

	s := NewSink(reader, out, logger)
	s.batchSize = 1
	s.flushEvery = time.Hour

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	reader.messages <- message(t, domain.QueueEvent{Type: domain.EventCreated, ReservationID: "A", OccurredAt: at})
	reader.messages <- message(t, domain.QueueEvent{Type: domain.EventCreated, ReservationID: "B", OccurredAt: at})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, 1)

	assert.Eventually(t, func() bool { return out.count() == 1 }, time.Second, 5*time.Millisecond)

	out.mu.Lock()
	defer out.mu.Unlock()
	assert.Equal(t, "B", out.batches[0][0].ReservationID)
}
