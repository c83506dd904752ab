package history

import (
	"encoding/json"
	"sort"

	"interestingness/domain/core"
)

// InteractionHistory is the recorded trajectory of one agent: the ordered
// sample log plus count tables derived from it. The sample log is the only
// persisted representation; every derived table is rebuilt on decode.
type InteractionHistory struct {
	samples []Sample

	stateVisits      map[int]int
	pairCounts       map[Pair]int
	transitionCounts map[Transition]int
	rewardTotals     map[Pair]float64
}

// New creates an empty interaction history.
func New() *InteractionHistory {
	return &InteractionHistory{
		stateVisits:      make(map[int]int),
		pairCounts:       make(map[Pair]int),
		transitionCounts: make(map[Transition]int),
		rewardTotals:     make(map[Pair]float64),
	}
}

// FromSamples creates a history holding the given samples in order.
func FromSamples(samples []Sample) *InteractionHistory {
	h := New()
	for _, s := range samples {
		h.Append(s)
	}
	return h
}

// Append records one transition and updates the derived count tables.
func (h *InteractionHistory) Append(s Sample) {
	h.samples = append(h.samples, s)
	h.stateVisits[s.State]++
	pair := Pair{State: s.State, Action: s.Action}
	h.pairCounts[pair]++
	h.transitionCounts[Transition{State: s.State, Action: s.Action, NextState: s.NextState}]++
	h.rewardTotals[pair] += s.Reward
}

// Len returns the number of recorded transitions.
func (h *InteractionHistory) Len() int {
	return len(h.samples)
}

// Samples returns a copy of the ordered sample log.
func (h *InteractionHistory) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// StateVisits returns how many recorded transitions start in state s.
func (h *InteractionHistory) StateVisits(s int) int {
	return h.stateVisits[s]
}

// VisitedStates returns every state the agent acted from, ascending.
func (h *InteractionHistory) VisitedStates() []int {
	states := make([]int, 0, len(h.stateVisits))
	for s := range h.stateVisits {
		states = append(states, s)
	}
	sort.Ints(states)
	return states
}

// PairCount returns how many times action a was taken in state s.
func (h *InteractionHistory) PairCount(s, a int) int {
	return h.pairCounts[Pair{State: s, Action: a}]
}

// Pairs returns every recorded state-action pair, ordered by state then action.
func (h *InteractionHistory) Pairs() []Pair {
	pairs := make([]Pair, 0, len(h.pairCounts))
	for p := range h.pairCounts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].State != pairs[j].State {
			return pairs[i].State < pairs[j].State
		}
		return pairs[i].Action < pairs[j].Action
	})
	return pairs
}

// TransitionCount returns how many times (s, a) led to ns.
func (h *InteractionHistory) TransitionCount(s, a, ns int) int {
	return h.transitionCounts[Transition{State: s, Action: a, NextState: ns}]
}

// NextStates returns every observed outcome state of (s, a), ascending.
func (h *InteractionHistory) NextStates(s, a int) []int {
	seen := make(map[int]bool)
	for t := range h.transitionCounts {
		if t.State == s && t.Action == a {
			seen[t.NextState] = true
		}
	}
	states := make([]int, 0, len(seen))
	for ns := range seen {
		states = append(states, ns)
	}
	sort.Ints(states)
	return states
}

// RewardTotal returns the cumulative reward received for (s, a).
func (h *InteractionHistory) RewardTotal(s, a int) float64 {
	return h.rewardTotals[Pair{State: s, Action: a}]
}

// MeanReward returns the average reward received for (s, a), or 0 when the
// pair was never recorded.
func (h *InteractionHistory) MeanReward(s, a int) float64 {
	count := h.pairCounts[Pair{State: s, Action: a}]
	if count == 0 {
		return 0
	}
	return h.rewardTotals[Pair{State: s, Action: a}] / float64(count)
}

// SamplesForState returns every recorded sample leaving state s, in insertion
// order.
func (h *InteractionHistory) SamplesForState(s int) []Sample {
	var out []Sample
	for _, sample := range h.samples {
		if sample.State == s {
			out = append(out, sample)
		}
	}
	return out
}

// SamplesForPair returns every recorded sample of (s, a), in insertion order.
func (h *InteractionHistory) SamplesForPair(s, a int) []Sample {
	var out []Sample
	for _, sample := range h.samples {
		if sample.State == s && sample.Action == a {
			out = append(out, sample)
		}
	}
	return out
}

// SamplesForTransition returns every recorded sample of (s, a) that landed in
// ns, in insertion order.
func (h *InteractionHistory) SamplesForTransition(s, a, ns int) []Sample {
	var out []Sample
	for _, sample := range h.samples {
		if sample.State == s && sample.Action == a && sample.NextState == ns {
			out = append(out, sample)
		}
	}
	return out
}

// Fingerprint returns a deterministic digest of the ordered sample log.
func (h *InteractionHistory) Fingerprint() core.Hash {
	keys := make([]string, len(h.samples))
	for i, s := range h.samples {
		keys[i] = s.Key()
	}
	return core.HashStrings(keys...)
}

// MarshalJSON encodes the history as its ordered sample log.
func (h *InteractionHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.samples)
}

// UnmarshalJSON decodes a sample log and rebuilds every derived count table.
func (h *InteractionHistory) UnmarshalJSON(data []byte) error {
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return err
	}
	*h = *FromSamples(samples)
	return nil
}
