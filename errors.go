package ledserver

// This file contains the error taxonomy shared by the animation state, the
// frame evaluator and the output sinks.  Callers wrap these with context using
// github.com/pkg/errors and classify them again using errors.Cause

import (
	"github.com/pkg/errors"
)

var (
	// ErrIndexOutOfRange is returned when a pixel index falls outside of the strip
	ErrIndexOutOfRange = errors.New("index out of bounds")

	// ErrInvalidDescriptor is returned when a descriptor, stride or colour shape
	// is rejected before any state is mutated
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrNotEnoughStops is returned when a colour sequence blend is given fewer than two stops
	ErrNotEnoughStops = errors.New("not enough stops")

	// ErrSinkUnavailable is returned when an output sink cannot be reached
	ErrSinkUnavailable = errors.New("sink unavailable")

	// ErrAlreadyRunning is returned when the render loop is started while it is not stopped
	ErrAlreadyRunning = errors.New("render loop already running")
)

// IsIndexOutOfRange reports whether err was caused by a bad pixel index
func IsIndexOutOfRange(err error) bool {
	return err != nil && errors.Cause(err) == ErrIndexOutOfRange
}

// IsInvalidDescriptor reports whether err was caused by a rejected descriptor
func IsInvalidDescriptor(err error) bool {
	return err != nil && errors.Cause(err) == ErrInvalidDescriptor
}

// IsSinkUnavailable reports whether err was caused by an unreachable sink
func IsSinkUnavailable(err error) bool {
	return err != nil && errors.Cause(err) == ErrSinkUnavailable
}
