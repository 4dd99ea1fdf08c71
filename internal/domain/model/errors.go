package model

import "errors"

var (
	// ErrStageRecorded is returned when a trace stage is written twice.
	ErrStageRecorded = errors.New("stage already recorded")
	// ErrTraceSealed is returned when writing to a finished trace.
	ErrTraceSealed = errors.New("decision trace is sealed")
)
