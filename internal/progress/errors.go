// internal/progress/errors.go
package progress

import "errors"

var (
	// ErrStageFixed is returned when toggling a stage that has no toggle
	// (keyword extraction always runs first).
	ErrStageFixed = errors.New("stage cannot be toggled")

	// ErrStageNotReady is returned when the prior stage has not completed or
	// the stage itself already has.
	ErrStageNotReady = errors.New("stage is not ready to toggle")

	// ErrToggleInFlight is returned while a previous toggle round trip is
	// still pending.
	ErrToggleInFlight = errors.New("stage toggle already in flight")
)
