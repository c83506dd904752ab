package analyses

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"interestingness/adapters/excel"
	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/history"
)

// KindRareOutcome identifies the rare transition-outcome analysis.
const KindRareOutcome = analysis.Kind("rare_outcome")

const rareOutcomeSchema = 1

func init() {
	analysis.RegisterKind(KindRareOutcome, rareOutcomeSchema,
		func(b analysis.Binding) analysis.Analysis { return NewRareOutcome(b) },
		decodeRareOutcome)
}

// RareOutcomeAnalysis finds state-action pairs whose outcomes surprise: a
// next state observed with probability at or below the configured maximum
// is a rare outcome, and a pair whose outcome distribution has normalized
// entropy at or above the configured minimum has an uncertain future. Only
// pairs with enough recorded support are scored.
type RareOutcomeAnalysis struct {
	binding analysis.Binding
	state   rareOutcomeState
}

type rareOutcome struct {
	State       int     `json:"state"`
	Action      int     `json:"action"`
	NextState   int     `json:"next_state"`
	Probability float64 `json:"probability"`
	Count       int     `json:"count"`
}

type uncertainPair struct {
	State    int     `json:"state"`
	Action   int     `json:"action"`
	Entropy  float64 `json:"entropy"`
	Outcomes int     `json:"outcomes"`
}

// rareOutcomeState is the persisted projection of the analysis, schema 1.
type rareOutcomeState struct {
	Elements        analysis.Elements `json:"elements"`
	RareOutcomes    []rareOutcome     `json:"rare_outcomes"`
	UncertainPairs  []uncertainPair   `json:"uncertain_pairs"`
	PairsConsidered int               `json:"pairs_considered"`
	MeanRareProb    float64           `json:"mean_rare_prob"`
	MeanEntropy     float64           `json:"mean_entropy"`
	TotalSamples    int               `json:"total_samples"`
}

// NewRareOutcome creates an empty rare-outcome analysis with the given
// binding.
func NewRareOutcome(b analysis.Binding) *RareOutcomeAnalysis {
	return &RareOutcomeAnalysis{binding: b, state: emptyRareOutcomeState()}
}

func emptyRareOutcomeState() rareOutcomeState {
	return rareOutcomeState{Elements: make(analysis.Elements)}
}

func decodeRareOutcome(state json.RawMessage) (analysis.Analysis, error) {
	var st rareOutcomeState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, err
	}
	if st.Elements == nil {
		st.Elements = make(analysis.Elements)
	}
	return &RareOutcomeAnalysis{state: st}, nil
}

func rareOutcomeElement(s, a, ns int) string {
	return fmt.Sprintf("rare-outcome-%d-%d-%d", s, a, ns)
}

func uncertainFutureElement(s, a int) string {
	return fmt.Sprintf("uncertain-future-%d-%d", s, a)
}

// Kind returns the variant identifier.
func (a *RareOutcomeAnalysis) Kind() analysis.Kind { return KindRareOutcome }

// Bind attaches runtime collaborators.
func (a *RareOutcomeAnalysis) Bind(b analysis.Binding) { a.binding = b }

// Analyze recomputes the outcome findings from the bound agent's history.
func (a *RareOutcomeAnalysis) Analyze() error {
	if !a.binding.Ready() {
		return core.ErrNoBinding
	}
	h := a.binding.Agent.RecordedHistory()
	cfg := a.binding.Helper.Config

	st := emptyRareOutcomeState()
	st.TotalSamples = h.Len()

	var rareProbs, entropies []float64
	for _, pair := range h.Pairs() {
		support := h.PairCount(pair.State, pair.Action)
		if support < cfg.MinPairSupport {
			continue
		}
		st.PairsConsidered++

		nextStates := h.NextStates(pair.State, pair.Action)
		probs := make([]float64, len(nextStates))
		for i, ns := range nextStates {
			probs[i] = float64(h.TransitionCount(pair.State, pair.Action, ns)) / float64(support)
		}

		for i, ns := range nextStates {
			if probs[i] > cfg.RareOutcomeMaxProb {
				continue
			}
			count := h.TransitionCount(pair.State, pair.Action, ns)
			st.RareOutcomes = append(st.RareOutcomes, rareOutcome{
				State:       pair.State,
				Action:      pair.Action,
				NextState:   ns,
				Probability: probs[i],
				Count:       count,
			})
			name := rareOutcomeElement(pair.State, pair.Action, ns)
			st.Elements[name] = analysis.NewSampleSet(h.SamplesForTransition(pair.State, pair.Action, ns)...)
			rareProbs = append(rareProbs, probs[i])
		}

		// A single observed outcome has zero entropy by definition.
		entropy := 0.0
		if len(nextStates) > 1 {
			entropy = stat.Entropy(probs) / math.Log(float64(len(nextStates)))
		}
		entropies = append(entropies, entropy)
		if len(nextStates) > 1 && entropy >= cfg.UncertainMinEntropy {
			st.UncertainPairs = append(st.UncertainPairs, uncertainPair{
				State:    pair.State,
				Action:   pair.Action,
				Entropy:  entropy,
				Outcomes: len(nextStates),
			})
			name := uncertainFutureElement(pair.State, pair.Action)
			st.Elements[name] = analysis.NewSampleSet(h.SamplesForPair(pair.State, pair.Action)...)
		}
	}

	if len(rareProbs) > 0 {
		mean, err := stats.Mean(rareProbs)
		if err != nil {
			return fmt.Errorf("rare probability mean: %w", err)
		}
		st.MeanRareProb = mean
	}
	if len(entropies) > 0 {
		mean, err := stats.Mean(entropies)
		if err != nil {
			return fmt.Errorf("entropy mean: %w", err)
		}
		st.MeanEntropy = mean
	}

	a.state = st
	return nil
}

// DifferenceTo returns the outcome findings present here and missing from
// other.
func (a *RareOutcomeAnalysis) DifferenceTo(other analysis.Analysis) (analysis.Analysis, error) {
	o, ok := other.(*RareOutcomeAnalysis)
	if !ok {
		return nil, core.NewKindMismatchError(other.Kind().String(), KindRareOutcome.String())
	}
	diff := a.state
	diff.Elements = a.state.Elements.Difference(o.state.Elements)

	diff.RareOutcomes = nil
	for _, r := range a.state.RareOutcomes {
		if _, ok := diff.Elements[rareOutcomeElement(r.State, r.Action, r.NextState)]; ok {
			diff.RareOutcomes = append(diff.RareOutcomes, r)
		}
	}
	diff.UncertainPairs = nil
	for _, u := range a.state.UncertainPairs {
		if _, ok := diff.Elements[uncertainFutureElement(u.State, u.Action)]; ok {
			diff.UncertainPairs = append(diff.UncertainPairs, u)
		}
	}
	return &RareOutcomeAnalysis{binding: a.binding, state: diff}, nil
}

// SampleAspects returns the element names containing the exact sample.
func (a *RareOutcomeAnalysis) SampleAspects(s history.Sample) []string {
	return a.state.Elements.AspectsOf(s)
}

// ElementNames returns all element names in lexicographic order.
func (a *RareOutcomeAnalysis) ElementNames() []string {
	return a.state.Elements.Names()
}

// Elements returns a deep copy of the current findings.
func (a *RareOutcomeAnalysis) Elements() analysis.Elements {
	return a.state.Elements.Clone()
}

// Stats returns the summary statistics of the last analysis.
func (a *RareOutcomeAnalysis) Stats() map[string]interface{} {
	return map[string]interface{}{
		"total_samples":    a.state.TotalSamples,
		"pairs_considered": a.state.PairsConsidered,
		"rare_outcomes":    len(a.state.RareOutcomes),
		"uncertain_pairs":  len(a.state.UncertainPairs),
		"mean_rare_prob":   a.state.MeanRareProb,
		"mean_entropy":     a.state.MeanEntropy,
		"elements":         len(a.state.Elements),
	}
}

// EncodeState projects the persisted findings into schema 1.
func (a *RareOutcomeAnalysis) EncodeState() (json.RawMessage, error) {
	return json.Marshal(a.state)
}

// WriteReport writes the human-readable findings report.
func (a *RareOutcomeAnalysis) WriteReport(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Rare outcome analysis\n")
	fmt.Fprintf(&b, "  samples analyzed: %d, pairs with support: %d\n", a.state.TotalSamples, a.state.PairsConsidered)
	fmt.Fprintf(&b, "  mean rare probability: %.3f, mean outcome entropy: %.3f\n", a.state.MeanRareProb, a.state.MeanEntropy)

	fmt.Fprintf(&b, "  rare outcomes (%d):\n", len(a.state.RareOutcomes))
	for _, r := range a.state.RareOutcomes {
		fmt.Fprintf(&b, "    %s + %s -> %s: p=%.3f (%d of the pair's records)\n",
			a.stateLabel(r.State), a.actionLabel(r.Action), a.stateLabel(r.NextState), r.Probability, r.Count)
	}
	fmt.Fprintf(&b, "  uncertain futures (%d):\n", len(a.state.UncertainPairs))
	for _, u := range a.state.UncertainPairs {
		fmt.Fprintf(&b, "    %s + %s: entropy %.3f over %d outcomes\n",
			a.stateLabel(u.State), a.actionLabel(u.Action), u.Entropy, u.Outcomes)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteVisualReport writes the CSV series, plot points and chart workbook.
func (a *RareOutcomeAnalysis) WriteVisualReport(dir string) error {
	header := []string{"state", "action", "next_state", "probability"}
	var rows [][]string
	var points []excel.ChartPoint
	for _, r := range a.state.RareOutcomes {
		rows = append(rows, []string{
			strconv.Itoa(r.State),
			strconv.Itoa(r.Action),
			strconv.Itoa(r.NextState),
			strconv.FormatFloat(r.Probability, 'f', -1, 64),
		})
		label := fmt.Sprintf("%d+%d->%d", r.State, r.Action, r.NextState)
		points = append(points, excel.ChartPoint{Label: label, Value: r.Probability})
	}
	return writeVisualArtifacts(dir, KindRareOutcome, "Rare outcome probabilities", header, rows, points)
}

func (a *RareOutcomeAnalysis) stateLabel(s int) string {
	if a.binding.Helper != nil {
		return a.binding.Helper.StateLabel(s)
	}
	return fmt.Sprintf("state %d", s)
}

func (a *RareOutcomeAnalysis) actionLabel(act int) string {
	if a.binding.Helper != nil {
		return a.binding.Helper.ActionLabel(act)
	}
	return fmt.Sprintf("action %d", act)
}
