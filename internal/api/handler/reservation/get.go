package reservation

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Get godoc
// @Summary      View a reservation and its queue position
// @Tags         Reservation
// @Produce      json
// @Param        id path string true "Reservation ID"
// @Success      200 {object} map[string]interface{} "queue_position is -1 once the slot has elapsed"
// @Failure      404 {object} map[string]string "Reservation not found"
// @Router       /v1/reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	st, ok := h.status(c, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "success",
		"data":           st.Reservation,
		"is_expired":     st.IsExpired,
		"queue_position": queuePosition(st),
	})
}

// Position godoc
// @Summary      Count the active reservations ahead of the caller
// @Tags         Queue
// @Produce      json
// @Param        id query string false "Reservation ID, defaults to the reservation cookie"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]string "Missing reservation id"
// @Failure      404 {object} map[string]string "Reservation not found"
// @Router       /v1/queue/position [get]
func (h *ReservationHandler) Position(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		id, _ = h.session.ID(c)
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation id is required"})
		return
	}

	st, ok := h.status(c, id)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "success",
		"queue_position": queuePosition(st),
		"is_expired":     st.IsExpired,
		"current_time":   st.CheckedAt.Format(time.RFC3339Nano),
	})
}
