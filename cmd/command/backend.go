package command

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"turnline/queue-gateway/internal/config"
	"turnline/queue-gateway/internal/event"
	"turnline/queue-gateway/internal/infra"
	"turnline/queue-gateway/internal/queue"
	"turnline/queue-gateway/internal/repository"
	"turnline/queue-gateway/internal/service/reservation"
)

// backend is the reservation service bound to the configured store.
type backend struct {
	service *reservation.ReservationService
	health  func(ctx context.Context) error
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func newBackend(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*backend, error) {
	engine, err := queue.NewEngine(cfg.Queue.SlotDuration)
	if err != nil {
		return nil, err
	}

	if cfg.Queue.SlotDurationDefaulted {
		logger.Warnf("SLOT_DURATION is not set, using the default of %s", cfg.Queue.SlotDuration)
	}

	b := &backend{}
	var opts []reservation.Option

	if cfg.Kafka.Enabled() {
		writer := infra.NewKafkaWriter(cfg.Kafka)
		publisher := event.NewKafkaPublisher(writer, logger, cfg.WorkerCount)
		opts = append(opts, reservation.WithPublisher(publisher))
		b.closers = append(b.closers, func() {
			publisher.Stop()
			if err := writer.Close(); err != nil {
				logger.Errorf("failed to close kafka writer: %v", err)
			}
		})
	}

	switch cfg.Database.Driver {
	case config.RedisStore:
		redisClient, err := infra.NewRedisClient(ctx, cfg.Database.Redis, logger)
		if err != nil {
			b.Close()
			return nil, errors.Wrap(err, "failed to connect to redis")
		}
		b.closers = append(b.closers, func() {
			if err := redisClient.Close(); err != nil {
				logger.Errorf("failed to close redis: %v", err)
			}
		})

		store := repository.NewRedisQueue(redisClient, cfg.Database.Redis.KeyPrefix)
		locker := repository.NewRedisLocker(redisClient, cfg.Database.Redis.KeyPrefix, cfg.Queue.LockTTL, cfg.Queue.LockWait, logger)
		b.service = reservation.NewReservationService(engine, store, store, locker, logger, cfg.Queue.WaitUnit, opts...)
		b.health = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}

	case config.PostgresStore:
		psql, err := infra.NewPostgresClient(ctx, cfg.Database.Postgres)
		if err != nil {
			b.Close()
			return nil, errors.Wrap(err, "failed to connect to postgresql")
		}
		b.closers = append(b.closers, func() {
			if err := psql.Close(); err != nil {
				logger.Errorf("failed to close postgresql: %v", err)
			}
		})

		// a process-local lock: run a single instance per postgres queue
		store := repository.NewPostgresQueue(psql.GetDb())
		locker := repository.NewLocalLocker(cfg.Queue.LockWait)
		b.service = reservation.NewReservationService(engine, store, store, locker, logger, cfg.Queue.WaitUnit, opts...)
		b.health = func(ctx context.Context) error {
			conn, err := psql.GetDb().DB()
			if err != nil {
				return err
			}
			return conn.PingContext(ctx)
		}

	case config.MemoryStore:
		logger.Warn("memory store selected, reservations are lost on exit")
		store := repository.NewMemoryQueue()
		locker := repository.NewLocalLocker(cfg.Queue.LockWait)
		b.service = reservation.NewReservationService(engine, store, store, locker, logger, cfg.Queue.WaitUnit, opts...)
		b.health = func(context.Context) error { return nil }

	default:
		b.Close()
		return nil, errors.Errorf("store driver %q is not supported", cfg.Database.Driver)
	}

	return b, nil
}
