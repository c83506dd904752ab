package analyses

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"interestingness/adapters/excel"
	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/history"
)

// KindRewardOutlier identifies the reward-outlier analysis.
const KindRewardOutlier = analysis.Kind("reward_outlier")

const rewardOutlierSchema = 1

func init() {
	analysis.RegisterKind(KindRewardOutlier, rewardOutlierSchema,
		func(b analysis.Binding) analysis.Analysis { return NewRewardOutlier(b) },
		decodeRewardOutlier)
}

// RewardOutlierAnalysis finds state-action pairs whose mean reward falls
// outside the Tukey fences of all pair means. Each outlier also gets the
// normal-tail probability of a mean at least that extreme, assuming pair
// means were normally distributed.
type RewardOutlierAnalysis struct {
	binding analysis.Binding
	state   rewardOutlierState
}

type rewardOutlier struct {
	State      int     `json:"state"`
	Action     int     `json:"action"`
	MeanReward float64 `json:"mean_reward"`
	TailProb   float64 `json:"tail_prob"`
}

// rewardOutlierState is the persisted projection of the analysis, schema 1.
type rewardOutlierState struct {
	Elements     analysis.Elements `json:"elements"`
	HighOutliers []rewardOutlier   `json:"high_outliers"`
	LowOutliers  []rewardOutlier   `json:"low_outliers"`
	LowerFence   float64           `json:"lower_fence"`
	UpperFence   float64           `json:"upper_fence"`
	RewardMean   float64           `json:"reward_mean"`
	RewardStdDev float64           `json:"reward_std_dev"`
	PairsScored  int               `json:"pairs_scored"`
	TotalSamples int               `json:"total_samples"`
}

// NewRewardOutlier creates an empty reward-outlier analysis with the given
// binding.
func NewRewardOutlier(b analysis.Binding) *RewardOutlierAnalysis {
	return &RewardOutlierAnalysis{binding: b, state: emptyRewardOutlierState()}
}

func emptyRewardOutlierState() rewardOutlierState {
	return rewardOutlierState{Elements: make(analysis.Elements)}
}

func decodeRewardOutlier(state json.RawMessage) (analysis.Analysis, error) {
	var st rewardOutlierState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, err
	}
	if st.Elements == nil {
		st.Elements = make(analysis.Elements)
	}
	return &RewardOutlierAnalysis{state: st}, nil
}

func rewardOutlierHighElement(s, a int) string {
	return fmt.Sprintf("reward-outlier-high-%d-%d", s, a)
}

func rewardOutlierLowElement(s, a int) string {
	return fmt.Sprintf("reward-outlier-low-%d-%d", s, a)
}

// Kind returns the variant identifier.
func (a *RewardOutlierAnalysis) Kind() analysis.Kind { return KindRewardOutlier }

// Bind attaches runtime collaborators.
func (a *RewardOutlierAnalysis) Bind(b analysis.Binding) { a.binding = b }

// Analyze recomputes the reward findings from the bound agent's history.
func (a *RewardOutlierAnalysis) Analyze() error {
	if !a.binding.Ready() {
		return core.ErrNoBinding
	}
	h := a.binding.Agent.RecordedHistory()
	cfg := a.binding.Helper.Config

	st := emptyRewardOutlierState()
	st.TotalSamples = h.Len()

	pairs := h.Pairs()
	st.PairsScored = len(pairs)
	// Quartiles are meaningless below four observations.
	if len(pairs) < 4 {
		a.state = st
		return nil
	}

	means := make([]float64, len(pairs))
	for i, pair := range pairs {
		means[i] = h.MeanReward(pair.State, pair.Action)
	}
	mean, err := stats.Mean(means)
	if err != nil {
		return fmt.Errorf("reward mean: %w", err)
	}
	stdDev, err := stats.StandardDeviation(means)
	if err != nil {
		return fmt.Errorf("reward std dev: %w", err)
	}
	q1, err := stats.Percentile(means, 25)
	if err != nil {
		return fmt.Errorf("reward first quartile: %w", err)
	}
	q3, err := stats.Percentile(means, 75)
	if err != nil {
		return fmt.Errorf("reward third quartile: %w", err)
	}
	iqr := q3 - q1
	st.RewardMean = mean
	st.RewardStdDev = stdDev
	st.LowerFence = q1 - cfg.OutlierIQRFactor*iqr
	st.UpperFence = q3 + cfg.OutlierIQRFactor*iqr

	for i, pair := range pairs {
		switch {
		case means[i] > st.UpperFence:
			st.HighOutliers = append(st.HighOutliers, rewardOutlier{
				State:      pair.State,
				Action:     pair.Action,
				MeanReward: means[i],
				TailProb:   upperTailProb(means[i], mean, stdDev),
			})
			name := rewardOutlierHighElement(pair.State, pair.Action)
			st.Elements[name] = analysis.NewSampleSet(h.SamplesForPair(pair.State, pair.Action)...)
		case means[i] < st.LowerFence:
			st.LowOutliers = append(st.LowOutliers, rewardOutlier{
				State:      pair.State,
				Action:     pair.Action,
				MeanReward: means[i],
				TailProb:   lowerTailProb(means[i], mean, stdDev),
			})
			name := rewardOutlierLowElement(pair.State, pair.Action)
			st.Elements[name] = analysis.NewSampleSet(h.SamplesForPair(pair.State, pair.Action)...)
		}
	}

	a.state = st
	return nil
}

func upperTailProb(x, mean, stdDev float64) float64 {
	if stdDev <= 0 {
		return 0
	}
	normal := distuv.Normal{Mu: mean, Sigma: stdDev}
	return 1 - normal.CDF(x)
}

func lowerTailProb(x, mean, stdDev float64) float64 {
	if stdDev <= 0 {
		return 0
	}
	normal := distuv.Normal{Mu: mean, Sigma: stdDev}
	return normal.CDF(x)
}

// DifferenceTo returns the reward findings present here and missing from
// other.
func (a *RewardOutlierAnalysis) DifferenceTo(other analysis.Analysis) (analysis.Analysis, error) {
	o, ok := other.(*RewardOutlierAnalysis)
	if !ok {
		return nil, core.NewKindMismatchError(other.Kind().String(), KindRewardOutlier.String())
	}
	diff := a.state
	diff.Elements = a.state.Elements.Difference(o.state.Elements)

	diff.HighOutliers = nil
	for _, r := range a.state.HighOutliers {
		if _, ok := diff.Elements[rewardOutlierHighElement(r.State, r.Action)]; ok {
			diff.HighOutliers = append(diff.HighOutliers, r)
		}
	}
	diff.LowOutliers = nil
	for _, r := range a.state.LowOutliers {
		if _, ok := diff.Elements[rewardOutlierLowElement(r.State, r.Action)]; ok {
			diff.LowOutliers = append(diff.LowOutliers, r)
		}
	}
	return &RewardOutlierAnalysis{binding: a.binding, state: diff}, nil
}

// SampleAspects returns the element names containing the exact sample.
func (a *RewardOutlierAnalysis) SampleAspects(s history.Sample) []string {
	return a.state.Elements.AspectsOf(s)
}

// ElementNames returns all element names in lexicographic order.
func (a *RewardOutlierAnalysis) ElementNames() []string {
	return a.state.Elements.Names()
}

// Elements returns a deep copy of the current findings.
func (a *RewardOutlierAnalysis) Elements() analysis.Elements {
	return a.state.Elements.Clone()
}

// Stats returns the summary statistics of the last analysis.
func (a *RewardOutlierAnalysis) Stats() map[string]interface{} {
	return map[string]interface{}{
		"total_samples":  a.state.TotalSamples,
		"pairs_scored":   a.state.PairsScored,
		"high_outliers":  len(a.state.HighOutliers),
		"low_outliers":   len(a.state.LowOutliers),
		"reward_mean":    a.state.RewardMean,
		"reward_std_dev": a.state.RewardStdDev,
		"lower_fence":    a.state.LowerFence,
		"upper_fence":    a.state.UpperFence,
		"elements":       len(a.state.Elements),
	}
}

// EncodeState projects the persisted findings into schema 1.
func (a *RewardOutlierAnalysis) EncodeState() (json.RawMessage, error) {
	return json.Marshal(a.state)
}

// WriteReport writes the human-readable findings report.
func (a *RewardOutlierAnalysis) WriteReport(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Reward outlier analysis\n")
	fmt.Fprintf(&b, "  samples analyzed: %d across %d state-action pairs\n", a.state.TotalSamples, a.state.PairsScored)
	fmt.Fprintf(&b, "  pair mean rewards: mean %.3f, std dev %.3f\n", a.state.RewardMean, a.state.RewardStdDev)
	fmt.Fprintf(&b, "  fences: [%.3f, %.3f]\n", a.state.LowerFence, a.state.UpperFence)

	fmt.Fprintf(&b, "  high outliers (%d):\n", len(a.state.HighOutliers))
	for _, r := range a.state.HighOutliers {
		fmt.Fprintf(&b, "    %s + %s: mean reward %.3f (tail p=%.4f)\n",
			a.stateLabel(r.State), a.actionLabel(r.Action), r.MeanReward, r.TailProb)
	}
	fmt.Fprintf(&b, "  low outliers (%d):\n", len(a.state.LowOutliers))
	for _, r := range a.state.LowOutliers {
		fmt.Fprintf(&b, "    %s + %s: mean reward %.3f (tail p=%.4f)\n",
			a.stateLabel(r.State), a.actionLabel(r.Action), r.MeanReward, r.TailProb)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteVisualReport writes the CSV series, plot points and chart workbook.
func (a *RewardOutlierAnalysis) WriteVisualReport(dir string) error {
	header := []string{"state", "action", "mean_reward", "side"}
	var rows [][]string
	var points []excel.ChartPoint
	appendOutlier := func(r rewardOutlier, side string) {
		rows = append(rows, []string{
			strconv.Itoa(r.State),
			strconv.Itoa(r.Action),
			strconv.FormatFloat(r.MeanReward, 'f', -1, 64),
			side,
		})
		label := fmt.Sprintf("%d+%d", r.State, r.Action)
		points = append(points, excel.ChartPoint{Label: label, Value: r.MeanReward})
	}
	for _, r := range a.state.HighOutliers {
		appendOutlier(r, "high")
	}
	for _, r := range a.state.LowOutliers {
		appendOutlier(r, "low")
	}
	return writeVisualArtifacts(dir, KindRewardOutlier, "Outlier pair mean rewards", header, rows, points)
}

func (a *RewardOutlierAnalysis) stateLabel(s int) string {
	if a.binding.Helper != nil {
		return a.binding.Helper.StateLabel(s)
	}
	return fmt.Sprintf("state %d", s)
}

func (a *RewardOutlierAnalysis) actionLabel(act int) string {
	if a.binding.Helper != nil {
		return a.binding.Helper.ActionLabel(act)
	}
	return fmt.Sprintf("action %d", act)
}
