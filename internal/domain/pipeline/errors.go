package pipeline

import "errors"

// ErrIllegalTransition marks a programming error in the run loop.
var ErrIllegalTransition = errors.New("illegal pipeline transition")

// ErrEmptyGoal is returned when a run is started without a goal.
var ErrEmptyGoal = errors.New("goal must not be empty")
