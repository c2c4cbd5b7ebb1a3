package command

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"turnline/queue-gateway/internal/config"
	"turnline/queue-gateway/internal/infra"
)

type MigrateCommand struct {
	Logger *log.Logger
}

type migrator interface {
	MigrateUp(dbName string) error
	MigrateDown(dbName string) error
}

func (cmd MigrateCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "run postgres and clickhouse migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		Run: func(_ *cobra.Command, args []string) {
			cmd.main(cfg, ctx, args)
		},
	}
}

func (cmd MigrateCommand) main(cfg *config.Config, ctx context.Context, args []string) {
	type target struct {
		name   string
		dbName string
		m      migrator
	}
	var targets []target

	if cfg.Database.Driver == config.PostgresStore {
		psql, err := infra.NewPostgresClient(ctx, cfg.Database.Postgres)
		if err != nil {
			cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "migrate : failed to connect to postgresql"))
			return
		}
		defer func() { _ = psql.Close() }()
		targets = append(targets, target{"postgresql", cfg.Database.Postgres.Database, psql})
	}

	if cfg.Database.ClickHouse.Enabled() {
		clickhouse, err := infra.NewClickHouseClient(cfg.Database.ClickHouse)
		if err != nil {
			cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "migrate : failed to connect to clickhouse"))
			return
		}
		targets = append(targets, target{"clickhouse", cfg.Database.ClickHouse.Database, clickhouse})
	}

	if len(targets) == 0 {
		cmd.Logger.WithContext(ctx).Info("nothing to migrate: store driver has no schema and clickhouse is not configured")
		return
	}

	migrationCommand := args[0]
	for _, t := range targets {
		var err error
		switch migrationCommand {
		case "up":
			err = t.m.MigrateUp(t.dbName)
		case "down":
			err = t.m.MigrateDown(t.dbName)
		default:
			cmd.Logger.WithContext(ctx).Fatal(errors.Errorf("migration command : %s is not supported", migrationCommand))
			return
		}
		if err != nil {
			cmd.Logger.WithContext(ctx).Fatal(errors.Wrapf(err, "migrate %s %s", t.name, migrationCommand))
			return
		}
		cmd.Logger.WithContext(ctx).Infof("%s migrated %s", t.name, migrationCommand)
	}
}
