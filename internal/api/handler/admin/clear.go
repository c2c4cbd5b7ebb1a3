package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/api/response"
)

// Clear godoc
// @Summary      Drop every reservation
// @Tags         Admin
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /v1/admin/reservations [delete]
// @Security     OperatorKey
func (h *AdminHandler) Clear(c *gin.Context) {
	n, err := h.reservationService.Clear(c)
	if err != nil {
		h.logger.WithContext(c).Errorf("failed to clear queue: %v", err)
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "all reservations cleared",
		"deleted_count": n,
	})
}
