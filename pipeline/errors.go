package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyAssociated = errors.New("box is already associated with a different pipeline")
	ErrUnassociated      = errors.New("can't produce values without being associated with a pipeline")
	ErrNotIdle           = errors.New("pipeline is no longer idle")
	ErrNilCapability     = errors.New("nil pipeline or capability")
	ErrCallbackFailed    = errors.New("box callback failed")
)

// PanicError is returned in place of a panic raised by a box callback.
// The recovered panic value is available as Value, and if it was an error then it can be matched with [errors.Is] or [errors.As].
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// recoverInto converts a recovered panic into a *[PanicError] stored in err.
// It must be deferred directly so recover works.
func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = &PanicError{Value: r}
	}
}
