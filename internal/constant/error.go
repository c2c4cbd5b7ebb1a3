package constant

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	ReservationNotFoundErrMsg = "reservation not found"
	EmptyQueueErrMsg          = "no reservations found"
	StoreUnavailableErrMsg    = "reservation store unavailable"
	QueueBusyErrMsg           = "queue is busy, try again"
)

var (
	ReservationNotFoundErr = errors.New(ReservationNotFoundErrMsg)
	EmptyQueueErr          = errors.New(EmptyQueueErrMsg)
	StoreUnavailableErr    = errors.New(StoreUnavailableErrMsg)
	QueueBusyErr           = errors.New(QueueBusyErrMsg)
)

// StoreError wraps an infrastructure failure of one of the stores.
// errors.Is(err, StoreUnavailableErr) reports true for it.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", StoreUnavailableErrMsg, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == StoreUnavailableErr }
