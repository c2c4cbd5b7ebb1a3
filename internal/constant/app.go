package constant

import (
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	RedisQueueKey      = "reservations"
	RedisRecordPrefix  = "reservation:"
	RedisSeqKey        = "seq"
	RedisLockKey       = "lock"
	KafkaProducerAcks  = kafka.RequireAll
	KafkaWriteTimeout  = 5 * time.Second
	KafkaWorkerBufSize = 1024 // queue events are small and rare; overflow is dropped
	KafkaWriteRetries  = 3
	KafkaRetryBackoff  = 500 * time.Millisecond
	StoreOpTimeout     = 2 * time.Second
	ReflowTimeout      = 10 * time.Second // cancel/clear keep running after the client goes away
	LockRetryInterval  = 25 * time.Millisecond
	EventBatchSize     = 100
	EventFlushInterval = time.Second
)

const (
	ReservationCookie    = "reservation_id"
	ReservationCookieTTL = 24 * time.Hour
	ReservationIdKey     = "reservation_id"
	OperatorKeyHeader    = "X-Operator-Key"
)

const KafkaEventSinkGroup = "turnline-event-sink"
