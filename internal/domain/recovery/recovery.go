// Package recovery extracts one JSON object from noisy generated text.
//
// Decode applies three tiers in order: the whole text, then the outermost
// brace span, then the caller's fallback. Every stage that expects a
// structured answer goes through Decode so failures are handled one way.
package recovery

import (
	"encoding/json"
	"errors"
	"strings"
)

// Outcome tags how a Result was obtained.
type Outcome int

const (
	// Parsed means the whole text was a JSON object.
	Parsed Outcome = iota
	// Recovered means a JSON object was found inside surrounding text.
	Recovered
	// Defaulted means nothing parsed and the fallback was returned.
	Defaulted
)

func (o Outcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case Recovered:
		return "recovered"
	case Defaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

// ErrNoObject is reported when the text holds no brace-delimited span.
var ErrNoObject = errors.New("no JSON object in text")

// Result carries the decoded value and how it was obtained. Err holds the
// last parse error when Outcome is Defaulted.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// ParseFailed reports whether the fallback was used.
func (r Result[T]) ParseFailed() bool { return r.Outcome == Defaulted }

// Decode parses text into T. It never fails: when no tier succeeds the
// fallback is returned with Outcome Defaulted.
func Decode[T any](text string, fallback T) Result[T] {
	trimmed := strings.TrimSpace(text)

	var err error
	if strings.HasPrefix(trimmed, "{") {
		var v T
		if err = json.Unmarshal([]byte(trimmed), &v); err == nil {
			return Result[T]{Value: v, Outcome: Parsed}
		}
	}

	span, ok := Span(trimmed)
	if !ok {
		if err == nil {
			err = ErrNoObject
		}
		return Result[T]{Value: fallback, Outcome: Defaulted, Err: err}
	}

	var v T
	if err = json.Unmarshal([]byte(span), &v); err != nil {
		return Result[T]{Value: fallback, Outcome: Defaulted, Err: err}
	}
	return Result[T]{Value: v, Outcome: Recovered}
}

// Span returns the text from the first '{' to the last '}'.
func Span(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
