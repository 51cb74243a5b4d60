package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrItemNotFound      = errors.New("order item not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotEditable       = errors.New("order can no longer be modified")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrNotPayable        = errors.New("order must be completed before payment")
	ErrTableReserved     = errors.New("table is reserved")
)

type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }
