package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/api/handler/admin"
	"turnline/queue-gateway/internal/api/handler/reservation"
	"turnline/queue-gateway/internal/api/middleware"
)

type HealthCheck func(ctx context.Context) error

// SetupAPIRoutes
// @title						Turnline queue service
// @version         			1.0.0
// @description     			Walk-up reservation queue
// @BasePath  					/
func (s *Server) SetupAPIRoutes(
	reservationHandler *reservation.ReservationHandler,
	adminHandler *admin.AdminHandler,
	session *middleware.ReservationSession,
	operatorKey string,
	health HealthCheck,
) {
	r := s.engine

	r.GET("/healthz", func(c *gin.Context) {
		if err := health(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("v1")
	v1.Use(session.Handle)
	{
		v1.POST("/reservations", reservationHandler.Create)
		v1.GET("/reservations", reservationHandler.List)
		v1.GET("/reservations/:id", reservationHandler.Get)
		v1.DELETE("/reservations/:id", reservationHandler.Cancel)

		v1.GET("/queue/position", reservationHandler.Position)
		v1.GET("/queue/wait-time", reservationHandler.WaitTime)
	}

	adminGroup := v1.Group("admin")
	adminGroup.Use(middleware.HandleOperator(operatorKey))
	{
		adminGroup.POST("/next-turn", adminHandler.NextTurn)
		adminGroup.DELETE("/reservations", adminHandler.Clear)
	}
}
