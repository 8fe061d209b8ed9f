package models

import (
	"errors"
	"strings"
)

// Rejected state transitions. Callers match them with errors.Is.
var (
	ErrUnknownKind       = errors.New("unknown vehicle kind")
	ErrAlreadyRunning    = errors.New("vehicle is already running")
	ErrAlreadyStopped    = errors.New("vehicle is already stopped")
	ErrStillMoving       = errors.New("stop the vehicle before turning it off")
	ErrEngineOff         = errors.New("vehicle must be running")
	ErrNoTurbo           = errors.New("vehicle has no turbo")
	ErrTurboAlreadyOn    = errors.New("turbo is already engaged")
	ErrTurboAlreadyOff   = errors.New("turbo is already disengaged")
	ErrNoCargo           = errors.New("vehicle cannot carry cargo")
	ErrCargoWhileRunning = errors.New("turn the truck off before loading or unloading")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrOverCapacity      = errors.New("cargo exceeds truck capacity")
	ErrNotEnoughCargo    = errors.New("not enough cargo to unload")
	ErrCorruptVehicle    = errors.New("corrupt persisted vehicle")
)

// ValidationError is a user-correctable input problem.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, " ")
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(msgs ...string) error {
	return &ValidationError{Messages: msgs}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
