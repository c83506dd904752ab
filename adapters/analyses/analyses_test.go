package analyses

import (
	"reflect"
	"testing"

	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/history"
	"interestingness/domain/scenario"
)

type testAgent struct {
	id core.AgentID
	h  *history.InteractionHistory
}

func (a *testAgent) ID() core.AgentID                             { return a.id }
func (a *testAgent) RecordedHistory() *history.InteractionHistory { return a.h }

func testBinding(cfg scenario.Config, samples []history.Sample) analysis.Binding {
	return analysis.Binding{
		Helper: scenario.NewHelper(cfg),
		Agent:  &testAgent{id: "agent-under-test", h: history.FromSamples(samples)},
	}
}

func repeatSample(s history.Sample, n int) []history.Sample {
	out := make([]history.Sample, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// assertRoundTrip encodes, decodes and verifies that the observable state
// of the decoded instance matches the original for every recorded sample.
func assertRoundTrip(t *testing.T, a analysis.Analysis, samples []history.Sample) analysis.Analysis {
	t.Helper()
	data, err := analysis.Encode(a)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := analysis.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Kind() != a.Kind() {
		t.Fatalf("decoded kind = %s, want %s", decoded.Kind(), a.Kind())
	}
	if !reflect.DeepEqual(decoded.ElementNames(), a.ElementNames()) {
		t.Errorf("decoded element names = %v, want %v", decoded.ElementNames(), a.ElementNames())
	}
	if !reflect.DeepEqual(decoded.Stats(), a.Stats()) {
		t.Errorf("decoded stats = %v, want %v", decoded.Stats(), a.Stats())
	}
	for _, s := range samples {
		got, want := decoded.SampleAspects(s), a.SampleAspects(s)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("decoded aspects of %v = %v, want %v", s, got, want)
		}
	}
	return decoded
}
