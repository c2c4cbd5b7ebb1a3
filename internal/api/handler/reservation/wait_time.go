package reservation

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/api/response"
)

// WaitTime godoc
// @Summary      Estimate the wait for a new entrant
// @Tags         Queue
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /v1/queue/wait-time [get]
func (h *ReservationHandler) WaitTime(c *gin.Context) {
	wait, err := h.reservationService.EstimateWait(c)
	if err != nil {
		h.logger.WithContext(c).Errorf("failed to estimate wait: %v", err)
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "success",
		"wait_time_minutes": wait.Units,
		"current_time":      wait.CheckedAt.Format(time.RFC3339Nano),
	})
}
