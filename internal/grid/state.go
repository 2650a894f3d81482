package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// State is the condition of a single cell.
type State uint8

const (
	Naive State = iota
	Infected
	Recovered
	Vaccinated
)

var stateNames = [...]string{
	Naive:      "naive",
	Infected:   "infected",
	Recovered:  "recovered",
	Vaccinated: "vaccinated",
}

// Valid reports whether s is one of the four cell states.
func (s State) Valid() bool {
	return int(s) < len(stateNames)
}

func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", uint8(s))
	}
	return stateNames[s]
}

// ParseState accepts a state name (case-insensitive) or its numeric code.
func ParseState(text string) (State, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	for i, name := range stateNames {
		if t == name {
			return State(i), nil
		}
	}
	if n, err := strconv.Atoi(t); err == nil && n >= 0 && n < len(stateNames) {
		return State(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidState, text)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, uint8(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Counts holds the number of cells in each state.
type Counts struct {
	Naive      int `json:"naive" yaml:"naive"`
	Infected   int `json:"infected" yaml:"infected"`
	Recovered  int `json:"recovered" yaml:"recovered"`
	Vaccinated int `json:"vaccinated" yaml:"vaccinated"`
}

func (c *Counts) add(s State) {
	switch s {
	case Naive:
		c.Naive++
	case Infected:
		c.Infected++
	case Recovered:
		c.Recovered++
	case Vaccinated:
		c.Vaccinated++
	}
}
