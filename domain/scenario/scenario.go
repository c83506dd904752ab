package scenario

import (
	"fmt"
	"strconv"
)

// Config holds the scenario parameters the analysis variants read at
// construction time. All fields are plain data so a config can be embedded in
// test fixtures or loaded from the environment.
type Config struct {
	NumStates  int `json:"num_states"`
	NumActions int `json:"num_actions"`

	// Frequency thresholds
	FrequentMinVisits       int     `json:"frequent_min_visits"`       // absolute floor for a frequent state
	FrequentVisitPercentile float64 `json:"frequent_visit_percentile"` // visit-count percentile a frequent state must reach
	InfrequentMaxVisits     int     `json:"infrequent_max_visits"`     // ceiling for an infrequent state

	// Outcome thresholds
	RareOutcomeMaxProb  float64 `json:"rare_outcome_max_prob"`  // observed probability at or below which an outcome is rare
	UncertainMinEntropy float64 `json:"uncertain_min_entropy"`  // normalized entropy at or above which a pair's future is uncertain
	MinPairSupport      int     `json:"min_pair_support"`       // pair count required before outcome statistics are trusted

	// Reward thresholds
	OutlierIQRFactor float64 `json:"outlier_iqr_factor"` // Tukey fence multiplier for reward outliers
}

// Defaults returns the scenario configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		NumStates:               100,
		NumActions:              4,
		FrequentMinVisits:       5,
		FrequentVisitPercentile: 90,
		InfrequentMaxVisits:     1,
		RareOutcomeMaxProb:      0.1,
		UncertainMinEntropy:     0.75,
		MinPairSupport:          5,
		OutlierIQRFactor:        1.5,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.NumStates <= 0 {
		return fmt.Errorf("num_states must be > 0, got %d", c.NumStates)
	}
	if c.NumActions <= 0 {
		return fmt.Errorf("num_actions must be > 0, got %d", c.NumActions)
	}
	if c.FrequentVisitPercentile < 0 || c.FrequentVisitPercentile > 100 {
		return fmt.Errorf("frequent_visit_percentile must be in [0, 100], got %f", c.FrequentVisitPercentile)
	}
	if c.RareOutcomeMaxProb < 0 || c.RareOutcomeMaxProb > 1 {
		return fmt.Errorf("rare_outcome_max_prob must be in [0, 1], got %f", c.RareOutcomeMaxProb)
	}
	if c.UncertainMinEntropy < 0 || c.UncertainMinEntropy > 1 {
		return fmt.Errorf("uncertain_min_entropy must be in [0, 1], got %f", c.UncertainMinEntropy)
	}
	if c.MinPairSupport < 1 {
		return fmt.Errorf("min_pair_support must be >= 1, got %d", c.MinPairSupport)
	}
	if c.OutlierIQRFactor <= 0 {
		return fmt.Errorf("outlier_iqr_factor must be > 0, got %f", c.OutlierIQRFactor)
	}
	return nil
}

// Helper wraps a scenario configuration together with the labeling surface
// report renderers use. Variants capture a helper at construction and read
// Helper.Config; the helper itself is never persisted.
type Helper struct {
	Config Config

	stateLabels  map[int]string
	actionLabels map[int]string
}

// NewHelper creates a helper over the given configuration.
func NewHelper(config Config) *Helper {
	return &Helper{
		Config:       config,
		stateLabels:  make(map[int]string),
		actionLabels: make(map[int]string),
	}
}

// SetStateLabel registers a human-readable name for a state.
func (h *Helper) SetStateLabel(s int, label string) {
	h.stateLabels[s] = label
}

// SetActionLabel registers a human-readable name for an action.
func (h *Helper) SetActionLabel(a int, label string) {
	h.actionLabels[a] = label
}

// StateLabel returns the registered label for s, falling back to its number.
func (h *Helper) StateLabel(s int) string {
	if label, ok := h.stateLabels[s]; ok {
		return label
	}
	return "state " + strconv.Itoa(s)
}

// ActionLabel returns the registered label for a, falling back to its number.
func (h *Helper) ActionLabel(a int) string {
	if label, ok := h.actionLabels[a]; ok {
		return label
	}
	return "action " + strconv.Itoa(a)
}
