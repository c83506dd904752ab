package analyses

import (
	"errors"
	"reflect"
	"testing"

	"interestingness/domain/core"
	"interestingness/domain/history"
	"interestingness/domain/scenario"
)

// frequencyFixture records ten visits to state 1, two each to states 2 and
// 3, and a single visit to state 4.
func frequencyFixture() []history.Sample {
	samples := repeatSample(history.Sample{State: 1, Action: 0, Reward: 0.1, NextState: 2}, 10)
	samples = append(samples,
		history.Sample{State: 2, Action: 0, Reward: 0, NextState: 1},
		history.Sample{State: 2, Action: 1, Reward: 0, NextState: 3},
		history.Sample{State: 3, Action: 0, Reward: 0, NextState: 1},
		history.Sample{State: 3, Action: 1, Reward: 0, NextState: 4},
		history.Sample{State: 4, Action: 0, Reward: 1, NextState: 1},
	)
	return samples
}

func frequencyConfig() scenario.Config {
	cfg := scenario.Defaults()
	cfg.FrequentMinVisits = 5
	cfg.FrequentVisitPercentile = 75
	cfg.InfrequentMaxVisits = 1
	return cfg
}

func TestStateFrequency_FindsFrequentAndInfrequentStates(t *testing.T) {
	samples := frequencyFixture()
	a := NewStateFrequency(testBinding(frequencyConfig(), samples))
	if err := a.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	wantNames := []string{"frequent-state-1", "infrequent-state-4"}
	if got := a.ElementNames(); !reflect.DeepEqual(got, wantNames) {
		t.Fatalf("element names = %v, want %v", got, wantNames)
	}

	if got := a.SampleAspects(history.Sample{State: 4, Action: 0, Reward: 1, NextState: 1}); !reflect.DeepEqual(got, []string{"infrequent-state-4"}) {
		t.Errorf("aspects of the single visit = %v, want [infrequent-state-4]", got)
	}
	if got := a.SampleAspects(history.Sample{State: 2, Action: 0, Reward: 0, NextState: 1}); len(got) != 0 {
		t.Errorf("a middling state should belong to no element, got %v", got)
	}

	st := a.Stats()
	if st["states_visited"] != 4 {
		t.Errorf("states_visited = %v, want 4", st["states_visited"])
	}
	if st["total_samples"] != 15 {
		t.Errorf("total_samples = %v, want 15", st["total_samples"])
	}
	if st["frequent_states"] != 1 || st["infrequent_states"] != 1 {
		t.Errorf("frequent/infrequent counts = %v/%v, want 1/1", st["frequent_states"], st["infrequent_states"])
	}
}

func TestStateFrequency_AnalyzeReplacesPreviousFindings(t *testing.T) {
	a := NewStateFrequency(testBinding(frequencyConfig(), frequencyFixture()))
	if err := a.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	first := a.ElementNames()

	// Re-bind to a shorter history and re-run: only the new findings
	// remain.
	a.Bind(testBinding(frequencyConfig(), []history.Sample{{State: 7, Action: 0, Reward: 0, NextState: 7}}))
	if err := a.Analyze(); err != nil {
		t.Fatalf("re-Analyze: %v", err)
	}
	second := a.ElementNames()
	if reflect.DeepEqual(first, second) {
		t.Fatal("re-analysis should replace findings")
	}
	if want := []string{"infrequent-state-7"}; !reflect.DeepEqual(second, want) {
		t.Errorf("element names after re-analysis = %v, want %v", second, want)
	}
}

func TestStateFrequency_EmptyHistory(t *testing.T) {
	a := NewStateFrequency(testBinding(frequencyConfig(), nil))
	if err := a.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if names := a.ElementNames(); len(names) != 0 {
		t.Errorf("empty history should yield no elements, got %v", names)
	}
	if st := a.Stats(); st["total_samples"] != 0 || st["states_visited"] != 0 {
		t.Errorf("empty history stats = %v", st)
	}
}

func TestStateFrequency_RequiresBinding(t *testing.T) {
	a := NewStateFrequency(testBinding(frequencyConfig(), frequencyFixture()))
	if err := a.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	data, err := a.EncodeState()
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	decoded, err := decodeStateFrequency(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := decoded.Analyze(); !errors.Is(err, core.ErrNoBinding) {
		t.Errorf("decoded Analyze err = %v, want ErrNoBinding", err)
	}
}

func TestStateFrequency_RoundTrip(t *testing.T) {
	samples := frequencyFixture()
	a := NewStateFrequency(testBinding(frequencyConfig(), samples))
	if err := a.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	assertRoundTrip(t, a, samples)
}

func TestStateFrequency_DifferenceAgainstPriorSnapshot(t *testing.T) {
	current := NewStateFrequency(testBinding(frequencyConfig(), frequencyFixture()))
	if err := current.Analyze(); err != nil {
		t.Fatalf("Analyze current: %v", err)
	}

	// The prior run never saw state 4.
	var priorSamples []history.Sample
	for _, s := range frequencyFixture() {
		if s.State != 4 {
			priorSamples = append(priorSamples, s)
		}
	}
	prior := NewStateFrequency(testBinding(frequencyConfig(), priorSamples))
	if err := prior.Analyze(); err != nil {
		t.Fatalf("Analyze prior: %v", err)
	}

	diff, err := current.DifferenceTo(prior)
	if err != nil {
		t.Fatalf("DifferenceTo: %v", err)
	}
	if want := []string{"infrequent-state-4"}; !reflect.DeepEqual(diff.ElementNames(), want) {
		t.Errorf("diff elements = %v, want %v", diff.ElementNames(), want)
	}

	// Nothing in the prior run is missing from the current one.
	back, err := prior.DifferenceTo(current)
	if err != nil {
		t.Fatalf("reverse DifferenceTo: %v", err)
	}
	if names := back.ElementNames(); len(names) != 0 {
		t.Errorf("reverse diff should be empty, got %v", names)
	}

	// Operands stay intact.
	if len(current.ElementNames()) != 2 || len(prior.ElementNames()) != 1 {
		t.Error("difference must not mutate its operands")
	}
}

func TestStateFrequency_DifferenceToSelfIsEmpty(t *testing.T) {
	a := NewStateFrequency(testBinding(frequencyConfig(), frequencyFixture()))
	if err := a.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	diff, err := a.DifferenceTo(a)
	if err != nil {
		t.Fatalf("DifferenceTo: %v", err)
	}
	if names := diff.ElementNames(); len(names) != 0 {
		t.Errorf("self-difference should be empty, got %v", names)
	}
}

func TestStateFrequency_DifferenceToRejectsOtherKind(t *testing.T) {
	a := NewStateFrequency(testBinding(frequencyConfig(), frequencyFixture()))
	b := NewRareOutcome(testBinding(scenario.Defaults(), nil))
	if _, err := a.DifferenceTo(b); !errors.Is(err, core.ErrKindMismatch) {
		t.Errorf("cross-kind difference err = %v, want ErrKindMismatch", err)
	}
}
