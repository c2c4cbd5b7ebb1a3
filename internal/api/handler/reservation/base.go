package reservation

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"turnline/queue-gateway/internal/api/response"
	"turnline/queue-gateway/internal/domain"
)

type ReservationHandler struct {
	reservationService reservationService
	session            session
	logger             *logrus.Logger
}

type reservationService interface {
	Create(ctx context.Context) (domain.Reservation, error)
	Get(ctx context.Context, id string) (domain.Status, error)
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Reservation, int64, error)
	Cancel(ctx context.Context, id string) (domain.CancelResult, error)
	EstimateWait(ctx context.Context) (domain.WaitEstimate, error)
}

type session interface {
	ID(c *gin.Context) (string, bool)
	Set(c *gin.Context, id string) error
	Forget(c *gin.Context, id string)
}

func New(reservationService reservationService, session session, logger *logrus.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		session:            session,
		logger:             logger,
	}
}

// status looks up id and drops the cookie once it points at a reservation
// that is gone or served. On failure the error response is already written.
func (h *ReservationHandler) status(c *gin.Context, id string) (domain.Status, bool) {
	st, err := h.reservationService.Get(c, id)
	if err != nil {
		if response.StatusOf(err) == http.StatusNotFound {
			h.session.Forget(c, id)
		}
		response.Error(c, err)
		return domain.Status{}, false
	}

	if st.Served {
		h.session.Forget(c, id)
	}
	return st, true
}

// queuePosition renders a status the way clients expect it: -1 once served.
func queuePosition(st domain.Status) int {
	if st.Served {
		return -1
	}
	return st.Position
}
