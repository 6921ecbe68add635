package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for an unsupported documentation
	// type or action.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrMissingInput is returned when update or create is called without
	// instructions.
	ErrMissingInput = errors.New("missing input")
	// ErrMissingTarget is returned when a review has no page ID to review.
	ErrMissingTarget = errors.New("missing target")
	// ErrDispatch matches every *DispatchError.
	ErrDispatch = errors.New("dispatch failed")
	// ErrConfiguration is returned by Validate when required settings or
	// credentials are absent.
	ErrConfiguration = errors.New("configuration error")
)

// DispatchError reports a transport or authentication failure while talking
// to the model or its providers.
type DispatchError struct {
	Backend string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch via %s: %v", e.Backend, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDispatch) hold for any DispatchError.
func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatch
}
