package pipeline

import "fmt"

// State is a step of one pipeline run.
type State int

const (
	Interpreting State = iota
	Extracting
	Structuring
	MappingDomains
	Explaining
	Done
	InsufficientKnowledge
)

var stateNames = [...]string{
	Interpreting:          "interpreting",
	Extracting:            "extracting",
	Structuring:           "structuring",
	MappingDomains:        "mapping_domains",
	Explaining:            "explaining",
	Done:                  "done",
	InsufficientKnowledge: "insufficient_knowledge",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == Done || s == InsufficientKnowledge }

// transitions lists the legal successors of each state. Extracting is the
// only state with two exits.
var transitions = map[State][]State{
	Interpreting:   {Extracting},
	Extracting:     {Structuring, InsufficientKnowledge},
	Structuring:    {MappingDomains},
	MappingDomains: {Explaining},
	Explaining:     {Done},
}

// machine tracks one run's position and refuses illegal moves.
type machine struct {
	state   State
	history []State
}

func newMachine() *machine {
	return &machine{state: Interpreting, history: []State{Interpreting}}
}

func (m *machine) advance(to State) error {
	for _, next := range transitions[m.state] {
		if next == to {
			m.state = to
			m.history = append(m.history, to)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, to)
}
