package main

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"turnline/queue-gateway/cmd/command"
	"turnline/queue-gateway/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	const description = "Turnline reservation queue"
	root := &cobra.Command{Use: "turnline", Short: description}

	cfg, err := config.Load()
	if err != nil {
		log.WithContext(ctx).Fatal(err)
	}

	logger := log.New()
	logger.SetLevel(cfg.LogLevel)
	if cfg.AppEnv == config.ProductionEnv {
		logger.SetFormatter(&log.JSONFormatter{})
	}

	root.AddCommand(
		command.Server{Logger: logger}.Command(ctx, cfg),
		command.MigrateCommand{Logger: logger}.Command(ctx, cfg),
		command.NextTurnCommand{Logger: logger}.Command(ctx, cfg),
		command.ClearCommand{Logger: logger}.Command(ctx, cfg),
		command.ListCommand{Logger: logger}.Command(ctx, cfg),
		command.KeysCommand{}.Command(ctx, cfg),
		command.ConsumeEventsCommand{Logger: logger}.Command(ctx, cfg),
		command.SimulateCommand{Logger: logger}.Command(ctx, cfg),
	)

	if err := root.Execute(); err != nil {
		logger.WithContext(ctx).Fatalf("failed to execute root command: \n%v", err)
	}
}
