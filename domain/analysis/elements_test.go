package analysis

import (
	"reflect"
	"testing"

	"interestingness/domain/history"
)

func sampleFixtures() (a, b, c, d history.Sample) {
	a = history.Sample{State: 3, Action: 1, Reward: 0.9, NextState: 7}
	b = history.Sample{State: 3, Action: 1, Reward: 0.9, NextState: 8}
	c = history.Sample{State: 0, Action: 2, Reward: -1.5, NextState: 3}
	d = history.Sample{State: 12, Action: 0, Reward: 0, NextState: 12}
	return
}

func TestSampleSetMembershipIsExact(t *testing.T) {
	a, b, _, _ := sampleFixtures()
	set := NewSampleSet(a)

	if !set.Contains(a) {
		t.Error("set should contain the inserted sample")
	}
	if set.Contains(b) {
		t.Error("set should not match a sample differing only in next state")
	}
	set.Add(a)
	if set.Len() != 1 {
		t.Errorf("re-adding a sample should not grow the set, got len %d", set.Len())
	}
}

func TestSampleSetSortedIsDeterministic(t *testing.T) {
	a, b, c, d := sampleFixtures()
	set := NewSampleSet(d, b, a, c)

	got := set.Sorted()
	want := []history.Sample{c, a, b, d}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestSampleSetDifferenceIsAsymmetric(t *testing.T) {
	a, b, c, _ := sampleFixtures()
	left := NewSampleSet(a, b)
	right := NewSampleSet(b, c)

	diff := left.Difference(right)
	if diff.Len() != 1 || !diff.Contains(a) {
		t.Errorf("left minus right should hold only %v, got %v", a, diff.Sorted())
	}

	back := right.Difference(left)
	if back.Len() != 1 || !back.Contains(c) {
		t.Errorf("right minus left should hold only %v, got %v", c, back.Sorted())
	}

	if left.Len() != 2 || right.Len() != 2 {
		t.Error("difference must not mutate its operands")
	}
}

func TestElementsDifferenceKeepsNovelFindings(t *testing.T) {
	a, b, c, d := sampleFixtures()

	mine := Elements{
		"shared-subset":   NewSampleSet(a),
		"shared-overlap":  NewSampleSet(a, d),
		"only-here":       NewSampleSet(b),
		"identical-twins": NewSampleSet(c),
	}
	other := Elements{
		"shared-subset":   NewSampleSet(a, b),
		"shared-overlap":  NewSampleSet(a),
		"identical-twins": NewSampleSet(c),
		"only-there":      NewSampleSet(d),
	}

	diff := mine.Difference(other)

	wantNames := []string{"only-here", "shared-overlap"}
	if got := diff.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Fatalf("diff names = %v, want %v", got, wantNames)
	}
	if set := diff["only-here"]; set.Len() != 1 || !set.Contains(b) {
		t.Errorf("element absent from other should keep its full set, got %v", set.Sorted())
	}
	if set := diff["shared-overlap"]; set.Len() != 1 || !set.Contains(d) {
		t.Errorf("overlapping element should keep only its novel samples, got %v", set.Sorted())
	}

	if len(mine) != 4 || len(other) != 4 {
		t.Error("difference must not mutate its operands")
	}
}

func TestElementsDifferenceWithSelfIsEmpty(t *testing.T) {
	a, b, c, _ := sampleFixtures()
	e := Elements{
		"one": NewSampleSet(a, b),
		"two": NewSampleSet(c),
	}

	if diff := e.Difference(e); len(diff) != 0 {
		t.Errorf("self-difference should be empty, got %v", diff.Names())
	}
}

func TestElementsAspectsOf(t *testing.T) {
	a, b, _, _ := sampleFixtures()
	e := Elements{
		"zulu":  NewSampleSet(a),
		"alpha": NewSampleSet(a, b),
		"other": NewSampleSet(b),
	}

	got := e.AspectsOf(a)
	want := []string{"alpha", "zulu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AspectsOf = %v, want %v", got, want)
	}

	none := e.AspectsOf(history.Sample{State: 99, Action: 9, Reward: 9, NextState: 99})
	if none == nil || len(none) != 0 {
		t.Errorf("unknown sample should yield an empty slice, got %v", none)
	}
}

func TestElementsCloneIsIndependent(t *testing.T) {
	a, b, _, _ := sampleFixtures()
	e := Elements{"one": NewSampleSet(a)}

	clone := e.Clone()
	clone["one"].Add(b)

	if e["one"].Contains(b) {
		t.Error("mutating a clone must not affect the original")
	}
}
