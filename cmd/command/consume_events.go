package command

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"turnline/queue-gateway/internal/config"
	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/event"
	"turnline/queue-gateway/internal/infra"
	"turnline/queue-gateway/internal/repository"
)

type ConsumeEventsCommand struct {
	Logger *log.Logger
}

func (cmd ConsumeEventsCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "consume-events",
		Short: "consume queue events from kafka and push them to clickhouse",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.main(cfg, ctx)
		},
	}
}

func (cmd ConsumeEventsCommand) main(cfg *config.Config, ctx context.Context) {
	if !cfg.Kafka.Enabled() || !cfg.Database.ClickHouse.Enabled() {
		cmd.Logger.WithContext(ctx).Fatal("consume-events needs KAFKA_HOST and CLICKHOUSE_HOST")
		return
	}

	clickhouse, err := infra.NewClickHouseClient(cfg.Database.ClickHouse)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "consume-events : failed to connect to clickhouse"))
		return
	}

	reader := infra.NewKafkaConsumer(cfg.Kafka, constant.KafkaEventSinkGroup)
	defer func() {
		if err := reader.Close(); err != nil {
			cmd.Logger.WithContext(ctx).Errorf("failed to close kafka consumer: %v", err)
		}
	}()

	sink := event.NewSink(reader, repository.NewEventLogRepository(clickhouse.GetDb()), cmd.Logger)
	sink.Run(ctx, cfg.WorkerCount)
}
