package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

type AppEnv string

const (
	ProductionEnv AppEnv = "production"
	StageEnv      AppEnv = "stage"
	DevelopEnv    AppEnv = "develop"
	LocalEnv      AppEnv = "local"
	TestEnv       AppEnv = "test"
)

type StoreDriver string

const (
	RedisStore    StoreDriver = "redis"
	PostgresStore StoreDriver = "postgres"
	MemoryStore   StoreDriver = "memory"
)

type (
	Config struct {
		AppEnv      AppEnv
		LogLevel    logrus.Level
		HTTP        HTTP
		Queue       Queue
		Database    Database
		Kafka       Kafka
		Cookie      Cookie
		OperatorKey string
		WorkerCount int
	}

	HTTP struct {
		Port int
	}

	Queue struct {
		SlotDuration time.Duration
		// SlotDurationDefaulted is set when SLOT_DURATION was not configured.
		SlotDurationDefaulted bool
		WaitUnit              time.Duration
		LockTTL               time.Duration
		LockWait              time.Duration
	}

	Database struct {
		Driver     StoreDriver
		Postgres   Postgres
		Redis      Redis
		ClickHouse ClickHouse
	}

	Postgres struct {
		Host     string
		Port     int
		Username string
		Password string
		Database string
	}

	Redis struct {
		Host      string
		Port      int
		Password  string
		Database  int
		KeyPrefix string
	}

	ClickHouse struct {
		Host     string
		Port     int
		Username string
		Password string
		Database string
	}

	Kafka struct {
		Host  string
		Port  int
		Topic string
	}

	Cookie struct {
		HashKey  []byte
		BlockKey []byte
	}
)

func (k Kafka) Enabled() bool {
	return k.Host != ""
}

func (c ClickHouse) Enabled() bool {
	return c.Host != ""
}

func (c Cookie) Enabled() bool {
	return len(c.HashKey) > 0
}
