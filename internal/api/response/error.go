package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"turnline/queue-gateway/internal/constant"
)

// Error writes err with the status code of its kind.
func Error(c *gin.Context, err error) {
	c.JSON(StatusOf(err), gin.H{"error": message(err)})
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, constant.ReservationNotFoundErr):
		return http.StatusNotFound
	case errors.Is(err, constant.EmptyQueueErr):
		return http.StatusNotFound
	case errors.Is(err, constant.QueueBusyErr):
		return http.StatusConflict
	case errors.Is(err, constant.StoreUnavailableErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// store details stay in the logs
func message(err error) string {
	switch {
	case errors.Is(err, constant.ReservationNotFoundErr):
		return constant.ReservationNotFoundErrMsg
	case errors.Is(err, constant.EmptyQueueErr):
		return constant.EmptyQueueErrMsg
	case errors.Is(err, constant.QueueBusyErr):
		return constant.QueueBusyErrMsg
	case errors.Is(err, constant.StoreUnavailableErr):
		return constant.StoreUnavailableErrMsg
	default:
		return "internal error"
	}
}
