package config

import (
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultSlotDuration = 2 * time.Minute

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "config : failed to read .env")
	}

	return FromEnv()
}

func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{
		AppEnv:      AppEnv(getenv("APP_ENV", string(LocalEnv))),
		OperatorKey: strings.TrimSpace(os.Getenv("OPERATOR_KEY")),
		Database: Database{
			Driver: StoreDriver(getenv("STORE_DRIVER", string(RedisStore))),
		},
	}

	if cfg.LogLevel, err = logrus.ParseLevel(getenv("LOG_LEVEL", "info")); err != nil {
		return nil, errors.Wrap(err, "LOG_LEVEL")
	}

	switch cfg.Database.Driver {
	case RedisStore, PostgresStore, MemoryStore:
	default:
		return nil, errors.Errorf("STORE_DRIVER %q is not supported", cfg.Database.Driver)
	}

	if cfg.HTTP.Port, err = getint("HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = getint("WORKER_COUNT", 4); err != nil {
		return nil, err
	}

	if err = loadQueue(&cfg.Queue); err != nil {
		return nil, err
	}
	if err = loadDatabase(&cfg.Database); err != nil {
		return nil, err
	}

	cfg.Kafka = Kafka{
		Host:  os.Getenv("KAFKA_HOST"),
		Topic: getenv("KAFKA_TOPIC", "queue.events"),
	}
	if cfg.Kafka.Port, err = getint("KAFKA_PORT", 9092); err != nil {
		return nil, err
	}

	hashKey := os.Getenv("COOKIE_HASH_KEY")
	blockKey := os.Getenv("COOKIE_BLOCK_KEY")
	if hashKey != "" {
		if cfg.Cookie.HashKey, err = decodeB64(hashKey); err != nil {
			return nil, errors.Wrap(err, "COOKIE_HASH_KEY")
		}
	}
	if blockKey != "" {
		if hashKey == "" {
			return nil, errors.New("COOKIE_BLOCK_KEY requires COOKIE_HASH_KEY")
		}
		if cfg.Cookie.BlockKey, err = decodeB64(blockKey); err != nil {
			return nil, errors.Wrap(err, "COOKIE_BLOCK_KEY")
		}
	}

	return cfg, nil
}

func loadQueue(q *Queue) error {
	var err error
	if os.Getenv("SLOT_DURATION") == "" {
		q.SlotDuration = DefaultSlotDuration
		q.SlotDurationDefaulted = true
	} else if q.SlotDuration, err = getduration("SLOT_DURATION", DefaultSlotDuration); err != nil {
		return err
	}
	if q.SlotDuration <= 0 {
		return errors.New("SLOT_DURATION must be positive")
	}

	if q.WaitUnit, err = getduration("WAIT_UNIT", time.Minute); err != nil {
		return err
	}
	if q.WaitUnit <= 0 {
		return errors.New("WAIT_UNIT must be positive")
	}
	if q.LockTTL, err = getduration("LOCK_TTL", 5*time.Second); err != nil {
		return err
	}
	if q.LockWait, err = getduration("LOCK_WAIT", 3*time.Second); err != nil {
		return err
	}

	return nil
}

func loadDatabase(db *Database) error {
	var err error

	db.Redis = Redis{
		Host:      getenv("REDIS_HOST", "localhost"),
		Password:  os.Getenv("REDIS_PASSWORD"),
		KeyPrefix: getenv("REDIS_KEY_PREFIX", "turnline"),
	}
	if db.Redis.Port, err = getint("REDIS_PORT", 6379); err != nil {
		return err
	}
	if db.Redis.Database, err = getint("REDIS_DB", 0); err != nil {
		return err
	}

	db.Postgres = Postgres{
		Host:     getenv("POSTGRES_HOST", "localhost"),
		Username: getenv("POSTGRES_USER", "turnline"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: getenv("POSTGRES_DB", "turnline"),
	}
	if db.Postgres.Port, err = getint("POSTGRES_PORT", 5432); err != nil {
		return err
	}

	db.ClickHouse = ClickHouse{
		Host:     os.Getenv("CLICKHOUSE_HOST"),
		Username: getenv("CLICKHOUSE_USER", "default"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		Database: getenv("CLICKHOUSE_DB", "turnline"),
	}
	if db.ClickHouse.Port, err = getint("CLICKHOUSE_PORT", 9000); err != nil {
		return err
	}

	return nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func getint(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", k)
	}
	return i, nil
}

func getduration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", k)
	}
	return d, nil
}

func decodeB64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
