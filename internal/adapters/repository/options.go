package repository

import (
	"time"

	"github.com/google/uuid"
)

type settings struct {
	newID func() string
	now   func() time.Time
}

func defaults() settings {
	return settings{
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithIDGenerator replaces the uuid generator for path and proposal ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(fn func() time.Time) Option {
	return func(s *settings) {
		if fn != nil {
			s.now = fn
		}
	}
}

func apply(opts []Option) settings {
	s := defaults()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
