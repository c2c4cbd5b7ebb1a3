package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/api/response"
)

// NextTurn godoc
// @Summary      Serve the head of the queue
// @Description  Not idempotent: every call removes the current head
// @Tags         Admin
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} map[string]string "Queue is empty"
// @Router       /v1/admin/next-turn [post]
// @Security     OperatorKey
func (h *AdminHandler) NextTurn(c *gin.Context) {
	id, err := h.reservationService.AdvanceTurn(c)
	if err != nil {
		if response.StatusOf(err) != http.StatusNotFound {
			h.logger.WithContext(c).Errorf("failed to advance turn: %v", err)
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "moved to next turn",
		"removed_id": id,
	})
}
