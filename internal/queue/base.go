package queue

import (
	"time"

	"github.com/pkg/errors"
)

// Engine holds the rules of the reservation queue. It does no I/O: callers
// read a snapshot from the stores, ask the engine, and persist the answer.
type Engine struct {
	slot time.Duration
}

func NewEngine(slotDuration time.Duration) (*Engine, error) {
	if slotDuration <= 0 {
		return nil, errors.Errorf("slot duration must be positive, got %s", slotDuration)
	}

	return &Engine{slot: slotDuration}, nil
}

func (e *Engine) SlotDuration() time.Duration {
	return e.slot
}

// WindowEnd is the instant a slot starting at slotTime closes.
func (e *Engine) WindowEnd(slotTime time.Time) time.Time {
	return slotTime.Add(e.slot)
}
