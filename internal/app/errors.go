package service

import "errors"

var (
	ErrNotStarted   = errors.New("service not started")
	ErrJobNotFound  = errors.New("job not found")
	ErrBackpressure = errors.New("job queue is full")
	ErrMissingPath  = errors.New("either path_id or learning_path is required")
	ErrEmptyQuery   = errors.New("query must not be empty")
)
