package testkit

import (
	"context"
	"sort"
	"sync"

	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/history"
	"interestingness/domain/scenario"
	"interestingness/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	Helper *scenario.Helper
	Agent  *ScriptedAgent
	Store  *InMemoryAnalysisStore
}

// NewTestKit creates a new test kit instance with synthetic data
func NewTestKit() *TestKit {
	cfg := DefaultSyntheticConfig()
	helper := scenario.NewHelper(cfg.Scenario())
	helper.SetStateLabel(cfg.HubState, "hub")
	helper.SetActionLabel(0, "wait")

	agent := NewScriptedAgent("agent-under-test", SyntheticHistory(cfg))
	return &TestKit{
		Helper: helper,
		Agent:  agent,
		Store:  NewInMemoryAnalysisStore(),
	}
}

// Binding returns the helper and agent packaged for analysis construction.
func (t *TestKit) Binding() analysis.Binding {
	return analysis.Binding{Helper: t.Helper, Agent: t.Agent}
}

// ScriptedAgent is an analysis.Agent whose history is fixed up front.
type ScriptedAgent struct {
	id      core.AgentID
	history *history.InteractionHistory
}

// NewScriptedAgent creates an agent that replays the given history.
func NewScriptedAgent(id string, h *history.InteractionHistory) *ScriptedAgent {
	return &ScriptedAgent{id: core.AgentID(id), history: h}
}

func (a *ScriptedAgent) ID() core.AgentID { return a.id }

func (a *ScriptedAgent) RecordedHistory() *history.InteractionHistory { return a.history }

// InMemoryAnalysisStore implements ports.AnalysisStore with in-memory storage
type InMemoryAnalysisStore struct {
	snapshots map[core.SnapshotID]ports.SnapshotRecord
	mu        sync.RWMutex
}

func NewInMemoryAnalysisStore() *InMemoryAnalysisStore {
	return &InMemoryAnalysisStore{
		snapshots: make(map[core.SnapshotID]ports.SnapshotRecord),
	}
}

func (s *InMemoryAnalysisStore) SaveSnapshot(ctx context.Context, rec ports.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = core.Now()
	}
	s.snapshots[rec.ID] = rec
	return nil
}

func (s *InMemoryAnalysisStore) GetSnapshot(ctx context.Context, id core.SnapshotID) (*ports.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.snapshots[id]
	if !exists {
		return nil, core.ErrSnapshotNotFound
	}
	return &rec, nil
}

func (s *InMemoryAnalysisStore) ListSnapshots(ctx context.Context, filters ports.SnapshotFilters) ([]ports.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []ports.SnapshotRecord
	for _, rec := range s.snapshots {
		if !matchesFilters(rec, filters) {
			continue
		}
		results = append(results, rec)
	}

	// Newest first, matching the database adapter's ordering.
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Time().Equal(results[j].CreatedAt.Time()) {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(results) {
			return nil, nil
		}
		results = results[filters.Offset:]
	}
	if filters.Limit > 0 && len(results) > filters.Limit {
		results = results[:filters.Limit]
	}
	return results, nil
}

func (s *InMemoryAnalysisStore) LatestSnapshot(ctx context.Context, agentID core.AgentID, kind analysis.Kind) (*ports.SnapshotRecord, error) {
	records, err := s.ListSnapshots(ctx, ports.SnapshotFilters{
		AgentID: &agentID,
		Kind:    &kind,
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrSnapshotNotFound
	}
	return &records[0], nil
}

func matchesFilters(rec ports.SnapshotRecord, filters ports.SnapshotFilters) bool {
	if filters.RunID != nil && rec.RunID != *filters.RunID {
		return false
	}
	if filters.AgentID != nil && rec.AgentID != *filters.AgentID {
		return false
	}
	if filters.Kind != nil && rec.Kind != *filters.Kind {
		return false
	}
	return true
}
