package analyses

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"interestingness/adapters/excel"
	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/history"
)

// KindStateFrequency identifies the state visit-frequency analysis.
const KindStateFrequency = analysis.Kind("state_frequency")

const stateFrequencySchema = 1

func init() {
	analysis.RegisterKind(KindStateFrequency, stateFrequencySchema,
		func(b analysis.Binding) analysis.Analysis { return NewStateFrequency(b) },
		decodeStateFrequency)
}

// StateFrequencyAnalysis finds the states the agent visits unusually often
// or hardly at all. A state is frequent when its visit count reaches both
// the configured absolute floor and the configured percentile of all
// per-state visit counts; it is infrequent when visited no more than the
// configured ceiling.
type StateFrequencyAnalysis struct {
	binding analysis.Binding
	state   stateFrequencyState
}

// stateVisit pairs a state with its recorded visit count. Element sample
// sets collapse repeated identical samples, so the raw counts are carried
// separately.
type stateVisit struct {
	State  int `json:"state"`
	Visits int `json:"visits"`
}

// stateFrequencyState is the persisted projection of the analysis, schema 1.
type stateFrequencyState struct {
	Elements         analysis.Elements `json:"elements"`
	FrequentStates   []stateVisit      `json:"frequent_states"`
	InfrequentStates []stateVisit      `json:"infrequent_states"`
	VisitThreshold   float64           `json:"visit_threshold"`
	VisitMean        float64           `json:"visit_mean"`
	VisitStdDev      float64           `json:"visit_std_dev"`
	VisitMax         float64           `json:"visit_max"`
	StatesVisited    int               `json:"states_visited"`
	TotalSamples     int               `json:"total_samples"`
}

// NewStateFrequency creates an empty state-frequency analysis with the
// given binding.
func NewStateFrequency(b analysis.Binding) *StateFrequencyAnalysis {
	return &StateFrequencyAnalysis{binding: b, state: emptyStateFrequencyState()}
}

func emptyStateFrequencyState() stateFrequencyState {
	return stateFrequencyState{Elements: make(analysis.Elements)}
}

func decodeStateFrequency(state json.RawMessage) (analysis.Analysis, error) {
	var st stateFrequencyState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, err
	}
	if st.Elements == nil {
		st.Elements = make(analysis.Elements)
	}
	return &StateFrequencyAnalysis{state: st}, nil
}

func frequentStateElement(s int) string {
	return fmt.Sprintf("frequent-state-%d", s)
}

func infrequentStateElement(s int) string {
	return fmt.Sprintf("infrequent-state-%d", s)
}

// Kind returns the variant identifier.
func (a *StateFrequencyAnalysis) Kind() analysis.Kind { return KindStateFrequency }

// Bind attaches runtime collaborators.
func (a *StateFrequencyAnalysis) Bind(b analysis.Binding) { a.binding = b }

// Analyze recomputes the frequency findings from the bound agent's history.
func (a *StateFrequencyAnalysis) Analyze() error {
	if !a.binding.Ready() {
		return core.ErrNoBinding
	}
	h := a.binding.Agent.RecordedHistory()
	cfg := a.binding.Helper.Config

	st := emptyStateFrequencyState()
	st.TotalSamples = h.Len()
	states := h.VisitedStates()
	st.StatesVisited = len(states)
	if len(states) == 0 {
		a.state = st
		return nil
	}

	counts := make([]float64, len(states))
	for i, s := range states {
		counts[i] = float64(h.StateVisits(s))
	}
	mean, err := stats.Mean(counts)
	if err != nil {
		return fmt.Errorf("visit mean: %w", err)
	}
	stdDev, err := stats.StandardDeviation(counts)
	if err != nil {
		return fmt.Errorf("visit std dev: %w", err)
	}
	max, err := stats.Max(counts)
	if err != nil {
		return fmt.Errorf("visit max: %w", err)
	}
	st.VisitMean = mean
	st.VisitStdDev = stdDev
	st.VisitMax = max

	// The percentile is undefined for a single observation; the absolute
	// floor alone decides then.
	threshold := float64(cfg.FrequentMinVisits)
	if len(counts) > 1 {
		p, err := stats.Percentile(counts, cfg.FrequentVisitPercentile)
		if err != nil {
			return fmt.Errorf("visit percentile: %w", err)
		}
		if p > threshold {
			threshold = p
		}
	}
	st.VisitThreshold = threshold

	for _, s := range states {
		visits := h.StateVisits(s)
		if float64(visits) >= threshold {
			st.FrequentStates = append(st.FrequentStates, stateVisit{State: s, Visits: visits})
			st.Elements[frequentStateElement(s)] = analysis.NewSampleSet(h.SamplesForState(s)...)
		}
		if visits <= cfg.InfrequentMaxVisits {
			st.InfrequentStates = append(st.InfrequentStates, stateVisit{State: s, Visits: visits})
			st.Elements[infrequentStateElement(s)] = analysis.NewSampleSet(h.SamplesForState(s)...)
		}
	}
	sortStateVisits(st.FrequentStates)
	sortStateVisits(st.InfrequentStates)

	a.state = st
	return nil
}

func sortStateVisits(visits []stateVisit) {
	sort.Slice(visits, func(i, j int) bool { return visits[i].State < visits[j].State })
}

// DifferenceTo returns the frequency findings present here and missing
// from other.
func (a *StateFrequencyAnalysis) DifferenceTo(other analysis.Analysis) (analysis.Analysis, error) {
	o, ok := other.(*StateFrequencyAnalysis)
	if !ok {
		return nil, core.NewKindMismatchError(other.Kind().String(), KindStateFrequency.String())
	}
	diff := a.state
	diff.Elements = a.state.Elements.Difference(o.state.Elements)
	diff.FrequentStates = keepStateVisits(a.state.FrequentStates, diff.Elements, frequentStateElement)
	diff.InfrequentStates = keepStateVisits(a.state.InfrequentStates, diff.Elements, infrequentStateElement)
	return &StateFrequencyAnalysis{binding: a.binding, state: diff}, nil
}

// keepStateVisits filters a state list down to the states whose element
// survived a difference.
func keepStateVisits(visits []stateVisit, elements analysis.Elements, name func(int) string) []stateVisit {
	var kept []stateVisit
	for _, v := range visits {
		if _, ok := elements[name(v.State)]; ok {
			kept = append(kept, v)
		}
	}
	return kept
}

// SampleAspects returns the element names containing the exact sample.
func (a *StateFrequencyAnalysis) SampleAspects(s history.Sample) []string {
	return a.state.Elements.AspectsOf(s)
}

// ElementNames returns all element names in lexicographic order.
func (a *StateFrequencyAnalysis) ElementNames() []string {
	return a.state.Elements.Names()
}

// Elements returns a deep copy of the current findings.
func (a *StateFrequencyAnalysis) Elements() analysis.Elements {
	return a.state.Elements.Clone()
}

// Stats returns the summary statistics of the last analysis.
func (a *StateFrequencyAnalysis) Stats() map[string]interface{} {
	return map[string]interface{}{
		"total_samples":     a.state.TotalSamples,
		"states_visited":    a.state.StatesVisited,
		"visit_mean":        a.state.VisitMean,
		"visit_std_dev":     a.state.VisitStdDev,
		"visit_max":         a.state.VisitMax,
		"visit_threshold":   a.state.VisitThreshold,
		"frequent_states":   len(a.state.FrequentStates),
		"infrequent_states": len(a.state.InfrequentStates),
		"elements":          len(a.state.Elements),
	}
}

// EncodeState projects the persisted findings into schema 1.
func (a *StateFrequencyAnalysis) EncodeState() (json.RawMessage, error) {
	return json.Marshal(a.state)
}

// WriteReport writes the human-readable findings report.
func (a *StateFrequencyAnalysis) WriteReport(w io.Writer) error {
	var b strings.Builder
	b.WriteString("State frequency analysis\n")
	fmt.Fprintf(&b, "  samples analyzed: %d across %d states\n", a.state.TotalSamples, a.state.StatesVisited)
	fmt.Fprintf(&b, "  visit counts: mean %.2f, std dev %.2f, max %.0f\n", a.state.VisitMean, a.state.VisitStdDev, a.state.VisitMax)
	fmt.Fprintf(&b, "  frequent threshold: %.1f visits\n", a.state.VisitThreshold)

	fmt.Fprintf(&b, "  frequent states (%d):\n", len(a.state.FrequentStates))
	for _, v := range a.state.FrequentStates {
		fmt.Fprintf(&b, "    %s: %d visits\n", a.stateLabel(v.State), v.Visits)
	}
	fmt.Fprintf(&b, "  infrequent states (%d):\n", len(a.state.InfrequentStates))
	for _, v := range a.state.InfrequentStates {
		fmt.Fprintf(&b, "    %s: %d visits\n", a.stateLabel(v.State), v.Visits)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteVisualReport writes the CSV series, plot points and chart workbook.
func (a *StateFrequencyAnalysis) WriteVisualReport(dir string) error {
	header := []string{"state", "visits", "class"}
	var rows [][]string
	var points []excel.ChartPoint
	for _, v := range a.state.FrequentStates {
		rows = append(rows, []string{strconv.Itoa(v.State), strconv.Itoa(v.Visits), "frequent"})
		points = append(points, excel.ChartPoint{Label: a.stateLabel(v.State), Value: float64(v.Visits)})
	}
	for _, v := range a.state.InfrequentStates {
		rows = append(rows, []string{strconv.Itoa(v.State), strconv.Itoa(v.Visits), "infrequent"})
		points = append(points, excel.ChartPoint{Label: a.stateLabel(v.State), Value: float64(v.Visits)})
	}
	return writeVisualArtifacts(dir, KindStateFrequency, "State visit counts", header, rows, points)
}

func (a *StateFrequencyAnalysis) stateLabel(s int) string {
	if a.binding.Helper != nil {
		return a.binding.Helper.StateLabel(s)
	}
	return fmt.Sprintf("state %d", s)
}
