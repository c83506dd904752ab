package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Sample is one recorded transition of an agent's interaction with its
// environment: it observed State, took Action, received Reward and landed in
// NextState.
type Sample struct {
	State     int     `json:"state"`
	Action    int     `json:"action"`
	Reward    float64 `json:"reward"`
	NextState int     `json:"next_state"`
}

// Key returns a stable string identifier for the exact sample. Two samples
// have equal keys iff all four components are equal; the reward is formatted
// with the shortest round-trippable representation.
func (s Sample) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.State))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(s.Action))
	b.WriteByte(':')
	b.WriteString(strconv.FormatFloat(s.Reward, 'g', -1, 64))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(s.NextState))
	return b.String()
}

func (s Sample) String() string {
	return fmt.Sprintf("(%d, %d, %s, %d)",
		s.State, s.Action, strconv.FormatFloat(s.Reward, 'g', -1, 64), s.NextState)
}

// Pair identifies a state-action pair.
type Pair struct {
	State  int `json:"state"`
	Action int `json:"action"`
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.State, p.Action)
}

// Transition identifies a state-action-outcome triple.
type Transition struct {
	State     int `json:"state"`
	Action    int `json:"action"`
	NextState int `json:"next_state"`
}

func (t Transition) String() string {
	return fmt.Sprintf("(%d, %d, %d)", t.State, t.Action, t.NextState)
}
