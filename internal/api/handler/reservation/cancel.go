package reservation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/api/response"
)

// Cancel godoc
// @Summary      Leave the queue
// @Description  Later reservations move up by one slot
// @Tags         Reservation
// @Produce      json
// @Param        id path string true "Reservation ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} map[string]string "Reservation not found"
// @Router       /v1/reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	id := c.Param("id")

	res, err := h.reservationService.Cancel(c, id)
	if err != nil {
		if response.StatusOf(err) != http.StatusNotFound {
			h.logger.WithContext(c).Errorf("failed to cancel reservation %s: %v", id, err)
		}
		response.Error(c, err)
		return
	}

	h.session.Forget(c, id)

	c.JSON(http.StatusOK, gin.H{
		"message": "reservation cancelled",
		"shifted": res.Shifted,
	})
}
