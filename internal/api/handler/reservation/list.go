package reservation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/api/response"
	"turnline/queue-gateway/internal/domain"
	"turnline/queue-gateway/pkg/paginator"
)

// List godoc
// @Summary      List the queue
// @Tags         Reservation
// @Produce      json
// @Param        order query string false "asc (creation order) or desc (most recent first)" default(asc)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Number of items per page" default(50)
// @Success      200 {object} map[string]interface{} "Reservations with pagination metadata"
// @Router       /v1/reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	order := c.DefaultQuery("order", "asc")
	if order != "asc" && order != "desc" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be asc or desc"})
		return
	}

	pagination := paginator.New(c)

	all, total, err := h.reservationService.List(c, domain.ListOptions{
		Reverse: order == "desc",
		Offset:  pagination.From,
		Limit:   pagination.Size,
	})
	if err != nil {
		h.logger.WithContext(c).Errorf("failed to list reservations: %v", err)
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "success",
		"data":    all,
		"meta": gin.H{
			"page_size": pagination.Size,
			"page":      pagination.Page,
			"total":     total,
		},
	})
}
