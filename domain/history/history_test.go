package history

import (
	"encoding/json"
	"testing"
)

func testSamples() []Sample {
	return []Sample{
		{State: 0, Action: 0, Reward: 1.0, NextState: 1},
		{State: 1, Action: 1, Reward: -0.5, NextState: 0},
		{State: 0, Action: 0, Reward: 1.0, NextState: 1},
		{State: 0, Action: 1, Reward: 0.25, NextState: 2},
		{State: 0, Action: 0, Reward: 2.0, NextState: 2},
	}
}

// TestCountTables tests that Append maintains every derived count table
func TestCountTables(t *testing.T) {
	h := FromSamples(testSamples())

	if h.Len() != 5 {
		t.Fatalf("Expected 5 samples, got %d", h.Len())
	}
	if got := h.StateVisits(0); got != 4 {
		t.Errorf("Expected 4 visits to state 0, got %d", got)
	}
	if got := h.StateVisits(2); got != 0 {
		t.Errorf("Expected 0 visits to state 2, got %d", got)
	}
	if got := h.PairCount(0, 0); got != 3 {
		t.Errorf("Expected pair (0,0) count 3, got %d", got)
	}
	if got := h.TransitionCount(0, 0, 1); got != 2 {
		t.Errorf("Expected transition (0,0,1) count 2, got %d", got)
	}
	if got := h.TransitionCount(0, 0, 2); got != 1 {
		t.Errorf("Expected transition (0,0,2) count 1, got %d", got)
	}

	wantMean := (1.0 + 1.0 + 2.0) / 3.0
	if got := h.MeanReward(0, 0); got != wantMean {
		t.Errorf("Expected mean reward %f for (0,0), got %f", wantMean, got)
	}
	if got := h.MeanReward(5, 5); got != 0 {
		t.Errorf("Expected zero mean reward for unrecorded pair, got %f", got)
	}
}

// TestOrderedQueries tests sorted state/pair enumeration
func TestOrderedQueries(t *testing.T) {
	h := FromSamples(testSamples())

	states := h.VisitedStates()
	if len(states) != 2 || states[0] != 0 || states[1] != 1 {
		t.Errorf("Expected visited states [0 1], got %v", states)
	}

	pairs := h.Pairs()
	want := []Pair{{0, 0}, {0, 1}, {1, 1}}
	if len(pairs) != len(want) {
		t.Fatalf("Expected %d pairs, got %d", len(want), len(pairs))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("Pair %d: expected %v, got %v", i, want[i], pairs[i])
		}
	}

	next := h.NextStates(0, 0)
	if len(next) != 2 || next[0] != 1 || next[1] != 2 {
		t.Errorf("Expected next states [1 2] for (0,0), got %v", next)
	}
}

// TestSampleSelection tests the per-state/pair/transition sample queries
func TestSampleSelection(t *testing.T) {
	h := FromSamples(testSamples())

	if got := len(h.SamplesForState(0)); got != 4 {
		t.Errorf("Expected 4 samples for state 0, got %d", got)
	}
	if got := len(h.SamplesForPair(0, 0)); got != 3 {
		t.Errorf("Expected 3 samples for pair (0,0), got %d", got)
	}
	if got := len(h.SamplesForTransition(0, 0, 1)); got != 2 {
		t.Errorf("Expected 2 samples for transition (0,0,1), got %d", got)
	}
	if got := h.SamplesForTransition(9, 9, 9); got != nil {
		t.Errorf("Expected nil for unrecorded transition, got %v", got)
	}
}

// TestHistoryJSONRoundTrip tests that decode rebuilds the derived tables
func TestHistoryJSONRoundTrip(t *testing.T) {
	h := FromSamples(testSamples())

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded := New()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Len() != h.Len() {
		t.Fatalf("Expected %d samples after round trip, got %d", h.Len(), decoded.Len())
	}
	if decoded.PairCount(0, 0) != h.PairCount(0, 0) {
		t.Error("Expected pair counts to be rebuilt on decode")
	}
	if !decoded.Fingerprint().Equals(h.Fingerprint()) {
		t.Error("Expected identical fingerprints after round trip")
	}
}

// TestSampleKeyStability tests exact-match key semantics
func TestSampleKeyStability(t *testing.T) {
	a := Sample{State: 3, Action: 1, Reward: 0.9, NextState: 7}
	b := Sample{State: 3, Action: 1, Reward: 0.9, NextState: 7}
	c := Sample{State: 3, Action: 1, Reward: 0.9, NextState: 8}

	if a.Key() != b.Key() {
		t.Error("Expected equal samples to share a key")
	}
	if a.Key() == c.Key() {
		t.Error("Expected different samples to have different keys")
	}
	if a.Key() != "3:1:0.9:7" {
		t.Errorf("Unexpected key format: %s", a.Key())
	}
}
