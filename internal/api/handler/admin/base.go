package admin

import (
	"context"

	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	reservationService reservationService
	logger             *logrus.Logger
}

type reservationService interface {
	AdvanceTurn(ctx context.Context) (string, error)
	Clear(ctx context.Context) (int, error)
}

func New(reservationService reservationService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}
