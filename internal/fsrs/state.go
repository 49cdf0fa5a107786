package fsrs

import (
	"encoding/json"
	"fmt"
)

// State is the learning stage of a card. The numeric values are part of the
// persisted contract and must not be reordered.
type State int

const (
	New        State = 0
	Learning   State = 1
	Review     State = 2
	Relearning State = 3
)

var stateNames = [...]string{New: "new", Learning: "learning", Review: "review", Relearning: "relearning"}

// Valid reports whether s is one of the four known states.
func (s State) Valid() bool {
	return s >= New && s <= Relearning
}

// ShortTerm reports whether the card is in a learning or relearning step.
func (s State) ShortTerm() bool {
	return s == Learning || s == Relearning
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidState, text)
}

// UnmarshalJSON accepts the state name, or the legacy integer encoding
// (0=new, 1=learning, 2=review, 3=relearning).
func (s *State) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !State(n).Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidState, n)
		}
		*s = State(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, data)
	}
	return s.UnmarshalText([]byte(name))
}
