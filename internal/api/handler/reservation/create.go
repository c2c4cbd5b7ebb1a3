package reservation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/api/response"
)

// Create godoc
// @Summary      Join the queue
// @Tags         Reservation
// @Produce      json
// @Success      201 {object} map[string]interface{} "Reservation with its slot time"
// @Failure      409 {object} map[string]string "Queue busy"
// @Failure      503 {object} map[string]string "Store unavailable"
// @Router       /v1/reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	r, err := h.reservationService.Create(c)
	if err != nil {
		h.logger.WithContext(c).Errorf("failed to create reservation: %v", err)
		response.Error(c, err)
		return
	}

	if err := h.session.Set(c, r.ID); err != nil {
		h.logger.WithContext(c).Warnf("failed to set reservation cookie: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "success",
		"reservation_id": r.ID,
		"data":           r,
	})
}
