package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TraceKey names one slot of the decision trace.
type TraceKey string

const (
	TraceGoalInterpretation TraceKey = "goal_interpretation"
	TracePlan               TraceKey = "plan"
	TraceEducationOutput    TraceKey = "education_output"
	TraceCrossDomainOutput  TraceKey = "cross_domain_output"
	TraceExplanation        TraceKey = "explanation"
)

// TraceEntry is one recorded artifact.
type TraceEntry struct {
	Key   TraceKey
	Value any
}

// DecisionTrace is an append-only record of a run's intermediate artifacts.
// Each key is written once; after Seal the trace is read-only.
// A trace belongs to a single run and is not safe for concurrent writers.
type DecisionTrace struct {
	entries []TraceEntry
	index   map[TraceKey]int
	sealed  bool
}

// NewDecisionTrace returns an empty, writable trace.
func NewDecisionTrace() *DecisionTrace {
	return &DecisionTrace{index: make(map[TraceKey]int)}
}

// Record appends value under key.
func (t *DecisionTrace) Record(key TraceKey, value any) error {
	if t.sealed {
		return fmt.Errorf("record %s: %w", key, ErrTraceSealed)
	}
	if _, ok := t.index[key]; ok {
		return fmt.Errorf("record %s: %w", key, ErrStageRecorded)
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, TraceEntry{Key: key, Value: value})
	return nil
}

// Seal makes the trace read-only.
func (t *DecisionTrace) Seal() { t.sealed = true }

// Sealed reports whether Seal was called.
func (t *DecisionTrace) Sealed() bool { return t.sealed }

// Get returns the artifact recorded under key.
func (t *DecisionTrace) Get(key TraceKey) (any, bool) {
	i, ok := t.index[key]
	if !ok {
		return nil, false
	}
	return t.entries[i].Value, true
}

// Keys lists recorded keys in insertion order.
func (t *DecisionTrace) Keys() []TraceKey {
	keys := make([]TraceKey, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len is the number of recorded artifacts.
func (t *DecisionTrace) Len() int { return len(t.entries) }

// MarshalJSON renders the trace as an object whose keys keep insertion order.
func (t *DecisionTrace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(e.Key))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal trace %s: %w", e.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
