package maplabel

import (
	"errors"
	"fmt"
)

// Sentinel errors for the maplabel package.
var (
	// ErrNoManager is returned by New without a tile manager.
	ErrNoManager = errors.New("maplabel: tile manager is nil")

	// ErrRunning is returned by Start when the worker is already running.
	ErrRunning = errors.New("maplabel: worker already running")

	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("maplabel: engine stopped")

	// ErrInvalidConfig is wrapped by Config.Validate errors.
	ErrInvalidConfig = errors.New("maplabel: invalid config")
)

// Pass phases reported in PassError.
const (
	PhaseCollect = "collect"
	PhasePlace   = "place"
	PhaseBuild   = "build"
)

// PassError is returned when a placement pass fails. The previous labels
// stay on screen.
type PassError struct {
	Phase string
	Cause error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("maplabel: %s failed: %v", e.Phase, e.Cause)
}

func (e *PassError) Unwrap() error {
	return e.Cause
}
