package analysis

import (
	"encoding/json"
	"sort"

	"interestingness/domain/history"
)

// SampleSet is a set of recorded samples keyed by their exact-match key.
type SampleSet map[string]history.Sample

// NewSampleSet creates a set holding the given samples.
func NewSampleSet(samples ...history.Sample) SampleSet {
	set := make(SampleSet, len(samples))
	for _, s := range samples {
		set.Add(s)
	}
	return set
}

// Add inserts a sample into the set.
func (set SampleSet) Add(s history.Sample) {
	set[s.Key()] = s
}

// Contains reports whether the exact sample is in the set.
func (set SampleSet) Contains(s history.Sample) bool {
	_, ok := set[s.Key()]
	return ok
}

// Len returns the number of samples in the set.
func (set SampleSet) Len() int {
	return len(set)
}

// Sorted returns the samples ordered by state, action, reward, next state.
func (set SampleSet) Sorted() []history.Sample {
	samples := make([]history.Sample, 0, len(set))
	for _, s := range set {
		samples = append(samples, s)
	}
	sort.Slice(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.State != b.State {
			return a.State < b.State
		}
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		if a.Reward != b.Reward {
			return a.Reward < b.Reward
		}
		return a.NextState < b.NextState
	})
	return samples
}

// Clone returns an independent copy of the set.
func (set SampleSet) Clone() SampleSet {
	out := make(SampleSet, len(set))
	for k, s := range set {
		out[k] = s
	}
	return out
}

// Equal reports whether both sets hold exactly the same samples.
func (set SampleSet) Equal(other SampleSet) bool {
	if len(set) != len(other) {
		return false
	}
	for k := range set {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every sample of the set is also in other.
func (set SampleSet) SubsetOf(other SampleSet) bool {
	for k := range set {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Difference returns the samples present here and absent from other. Neither
// set is mutated.
func (set SampleSet) Difference(other SampleSet) SampleSet {
	out := make(SampleSet)
	for k, s := range set {
		if _, ok := other[k]; !ok {
			out[k] = s
		}
	}
	return out
}

// MarshalJSON encodes the set as its deterministically ordered sample list.
func (set SampleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Sorted())
}

// UnmarshalJSON decodes a sample list and rebuilds the key index.
func (set *SampleSet) UnmarshalJSON(data []byte) error {
	var samples []history.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return err
	}
	*set = NewSampleSet(samples...)
	return nil
}

// Elements maps interestingness-element names to the samples belonging to
// them. Element names are stable string identifiers usable as lookup keys.
type Elements map[string]SampleSet

// Names returns every element name in lexicographic order.
func (e Elements) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AspectsOf returns the names of the elements containing the exact sample,
// in lexicographic order. The result is empty (never nil) when the sample
// belongs to no element.
func (e Elements) AspectsOf(s history.Sample) []string {
	names := make([]string, 0)
	for name, set := range e {
		if set.Contains(s) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// TotalSamples returns the summed size of every element's sample set.
func (e Elements) TotalSamples() int {
	total := 0
	for _, set := range e {
		total += set.Len()
	}
	return total
}

// Clone returns an independent deep copy.
func (e Elements) Clone() Elements {
	out := make(Elements, len(e))
	for name, set := range e {
		out[name] = set.Clone()
	}
	return out
}

// Difference returns the findings present here and missing from other: an
// element survives iff it exists here and either does not exist in other or
// its sample set is not a subset of other's. A surviving element keeps the
// asymmetric difference of its sample set (the whole set when other lacks
// the element). Neither operand is mutated.
func (e Elements) Difference(other Elements) Elements {
	out := make(Elements)
	for name, set := range e {
		otherSet, ok := other[name]
		if !ok {
			out[name] = set.Clone()
			continue
		}
		diff := set.Difference(otherSet)
		if diff.Len() > 0 {
			out[name] = diff
		}
	}
	return out
}
