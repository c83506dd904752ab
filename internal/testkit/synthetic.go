package testkit

import (
	"math/rand"

	"interestingness/domain/history"
	"interestingness/domain/scenario"
)

// SyntheticConfig configures the synthetic interaction generator. Three state
// indices are reserved for planted structure and never appear in the random
// background: LoneState is visited exactly once, SpikeState is only reached
// through the planted reward spike, and RareNextState is only reached through
// the planted one-off transition.
type SyntheticConfig struct {
	Steps      int   `json:"steps"`
	NumStates  int   `json:"num_states"`
	NumActions int   `json:"num_actions"`
	Seed       int64 `json:"seed"`

	HubState       int     `json:"hub_state"`        // state a large share of steps start in
	HubShare       float64 `json:"hub_share"`        // fraction of random steps redirected to the hub
	HubPairSupport int     `json:"hub_pair_support"` // planted visits of (hub, action 0)
	LoneState      int     `json:"lone_state"`       // state visited exactly once
	RareNextState  int     `json:"rare_next_state"`  // outcome observed exactly once from the hub pair
	SpikeState     int     `json:"spike_state"`
	SpikeAction    int     `json:"spike_action"`
	SpikeSupport   int     `json:"spike_support"` // planted visits of the spike pair
	SpikeReward    float64 `json:"spike_reward"`
	RewardNoise    float64 `json:"reward_noise"` // standard deviation of background rewards
}

// DefaultSyntheticConfig returns a generator configuration whose planted
// structure clears the default scenario thresholds.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Steps:          600,
		NumStates:      12,
		NumActions:     3,
		Seed:           7,
		HubState:       1,
		HubShare:       0.4,
		HubPairSupport: 12,
		LoneState:      9,
		RareNextState:  11,
		SpikeState:     10,
		SpikeAction:    2,
		SpikeSupport:   6,
		SpikeReward:    25,
		RewardNoise:    0.5,
	}
}

// Scenario returns the scenario configuration matching the generator's state
// and action spaces, with default thresholds.
func (c SyntheticConfig) Scenario() scenario.Config {
	cfg := scenario.Defaults()
	cfg.NumStates = c.NumStates
	cfg.NumActions = c.NumActions
	return cfg
}

// SyntheticHistory generates an interaction history with planted structure: a
// hub state that dominates visits, a state visited exactly once, a transition
// observed exactly once from a well-supported pair, and a pair whose reward
// sits far outside every other pair's mean.
func SyntheticHistory(cfg SyntheticConfig) *history.InteractionHistory {
	rng := rand.New(rand.NewSource(cfg.Seed))
	h := history.New()

	// Random background over the unreserved states.
	background := cfg.NumStates - 3
	for i := 0; i < cfg.Steps; i++ {
		s := rng.Intn(background)
		if rng.Float64() < cfg.HubShare {
			s = cfg.HubState
		}
		h.Append(history.Sample{
			State:     s,
			Action:    rng.Intn(cfg.NumActions),
			Reward:    rng.NormFloat64() * cfg.RewardNoise,
			NextState: rng.Intn(background),
		})
	}

	// Give the hub pair enough support for its outcome statistics to be
	// trusted, then plant the one-off outcome.
	for i := 0; i < cfg.HubPairSupport; i++ {
		h.Append(history.Sample{State: cfg.HubState, Action: 0, Reward: 0, NextState: cfg.HubState})
	}
	h.Append(history.Sample{State: cfg.HubState, Action: 0, Reward: 0, NextState: cfg.RareNextState})

	// One visit to the lone state.
	h.Append(history.Sample{State: cfg.LoneState, Action: 0, Reward: 0, NextState: cfg.HubState})

	// The reward spike. No background step reaches the spike state, so the
	// pair's mean reward is exactly the planted value.
	for i := 0; i < cfg.SpikeSupport; i++ {
		h.Append(history.Sample{
			State:     cfg.SpikeState,
			Action:    cfg.SpikeAction,
			Reward:    cfg.SpikeReward,
			NextState: cfg.HubState,
		})
	}

	return h
}
