package command

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"turnline/queue-gateway/internal/api"
	"turnline/queue-gateway/internal/api/handler/admin"
	"turnline/queue-gateway/internal/api/handler/reservation"
	"turnline/queue-gateway/internal/api/middleware"
	"turnline/queue-gateway/internal/config"
)

type Server struct {
	Logger *logrus.Logger
}

func (cmd Server) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "run the reservation queue HTTP server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.main(cfg, ctx)
		},
	}
}

func (cmd Server) main(cfg *config.Config, ctx context.Context) {
	b, err := newBackend(ctx, cfg, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server"))
		return
	}
	defer b.Close()

	if !cfg.Cookie.Enabled() {
		cmd.Logger.Warn("COOKIE_HASH_KEY is not set, reservation cookies are disabled")
	}
	if cfg.OperatorKey == "" {
		cmd.Logger.Warn("OPERATOR_KEY is not set, admin routes are disabled")
	}

	session := middleware.NewReservationSession(
		cfg.Cookie.HashKey,
		cfg.Cookie.BlockKey,
		cfg.AppEnv == config.ProductionEnv,
	)

	// create handlers
	reservationHandler := reservation.New(b.service, session, cmd.Logger)
	adminHandler := admin.New(b.service, cmd.Logger)

	server := api.New(cfg.AppEnv, cmd.Logger)
	server.SetupAPIRoutes(
		reservationHandler,
		adminHandler,
		session,
		cfg.OperatorKey,
		b.health,
	)

	if err := server.Serve(ctx, fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
		cmd.Logger.Error(err)
	}
}
