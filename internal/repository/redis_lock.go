package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"turnline/queue-gateway/internal/constant"
)

var releaseLockLua = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

var extendLockLua = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 0
`)

// redisLocker is a single-key SET NX PX lock shared by every instance that
// talks to the same queue. The holder renews the ttl until it unlocks, so the
// ttl only bounds how long a crashed holder blocks the queue.
type redisLocker struct {
	redisClient   *redis.Client
	key           string
	ttl           time.Duration
	wait          time.Duration
	logger        *logrus.Logger
	releaseScript *redis.Script
	extendScript  *redis.Script
}

func NewRedisLocker(redisClient *redis.Client, prefix string, ttl, wait time.Duration, logger *logrus.Logger) *redisLocker {
	key := constant.RedisLockKey
	if prefix != "" {
		key = prefix + ":" + key
	}

	return &redisLocker{
		redisClient:   redisClient,
		key:           key,
		ttl:           ttl,
		wait:          wait,
		logger:        logger,
		releaseScript: releaseLockLua,
		extendScript:  extendLockLua,
	}
}

func (l *redisLocker) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.redisClient.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, constant.NewStoreError("lock", err)
		}
		if ok {
			break
		}

		if time.Now().After(deadline) {
			return nil, constant.QueueBusyErr
		}

		select {
		case <-ctx.Done():
			return nil, constant.QueueBusyErr
		case <-time.After(constant.LockRetryInterval):
		}
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go l.keepAlive(token, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped

			releaseCtx, cancel := context.WithTimeout(context.Background(), constant.StoreOpTimeout)
			defer cancel()

			if err := l.releaseScript.Run(releaseCtx, l.redisClient, []string{l.key}, token).Err(); err != nil {
				// the ttl frees the lock eventually
				l.logger.Warnf("failed to release queue lock: %v", err)
			}
		})
	}, nil
}

// keepAlive extends the lock every third of its ttl while token still owns it.
func (l *redisLocker) keepAlive(token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	interval := l.ttl / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), constant.StoreOpTimeout)
			n, err := l.extendScript.Run(ctx, l.redisClient, []string{l.key}, token, l.ttl.Milliseconds()).Int64()
			cancel()

			if err != nil {
				l.logger.Warnf("failed to extend queue lock: %v", err)
				continue
			}
			if n == 0 {
				l.logger.Error("queue lock lost while held")
				return
			}
		}
	}
}
