package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/scenario"
	"interestingness/internal/errors"
	"interestingness/ports"
)

// maxConcurrentAnalyses bounds how many variants analyze a history at once.
const maxConcurrentAnalyses = 4

// AnalysisService runs every registered analysis variant over an agent's
// recorded history, persists the resulting snapshots, and fans the findings
// out into reports and workbooks.
type AnalysisService struct {
	store    ports.AnalysisStore
	exporter ports.WorkbookExporter
	helper   *scenario.Helper
	sem      *semaphore.Weighted
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(store ports.AnalysisStore, exporter ports.WorkbookExporter, helper *scenario.Helper) *AnalysisService {
	return &AnalysisService{
		store:    store,
		exporter: exporter,
		helper:   helper,
		sem:      semaphore.NewWeighted(maxConcurrentAnalyses),
	}
}

// SnapshotSummary is the per-variant slice of a run result.
type SnapshotSummary struct {
	SnapshotID core.SnapshotID        `json:"snapshot_id"`
	Kind       analysis.Kind          `json:"kind"`
	Elements   []string               `json:"elements"`
	Stats      map[string]interface{} `json:"stats"`
}

// RunResult summarizes one full analysis run.
type RunResult struct {
	RunID     core.RunID        `json:"run_id"`
	AgentID   core.AgentID      `json:"agent_id"`
	Snapshots []SnapshotSummary `json:"snapshots"`
	RuntimeMs int64             `json:"runtime_ms"`

	analyses []analysis.Analysis
}

// Analyses returns the analyzed variant instances in kind order.
func (r *RunResult) Analyses() []analysis.Analysis {
	return r.analyses
}

// RunAll analyzes the agent's recorded history with every registered variant
// and persists one snapshot per variant. Variants run concurrently under a
// bounded semaphore; each variant still analyzes on a single goroutine.
func (s *AnalysisService) RunAll(ctx context.Context, agent analysis.Agent, runID core.RunID) (*RunResult, error) {
	startTime := time.Now()

	if agent == nil {
		return nil, errors.InvalidInput("agent is required")
	}
	if s.helper == nil {
		return nil, errors.InvalidInput("scenario helper is required")
	}
	if runID == "" {
		runID = core.RunID(core.NewID())
	}

	binding := analysis.Binding{Helper: s.helper, Agent: agent}
	analyses := analysis.BuildAll(binding)
	if len(analyses) == 0 {
		return nil, errors.InternalError("no analysis kinds registered")
	}

	// Analyze concurrently, then persist sequentially so snapshot
	// timestamps preserve kind order.
	var wg sync.WaitGroup
	analyzeErrs := make([]error, len(analyses))
	for i, a := range analyses {
		wg.Add(1)
		go func(i int, a analysis.Analysis) {
			defer wg.Done()
			if err := s.sem.Acquire(ctx, 1); err != nil {
				analyzeErrs[i] = err
				return
			}
			defer s.sem.Release(1)
			analyzeErrs[i] = a.Analyze()
		}(i, a)
	}
	wg.Wait()
	for i, err := range analyzeErrs {
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", analyses[i].Kind(), err)
		}
	}

	result := &RunResult{
		RunID:    runID,
		AgentID:  agent.ID(),
		analyses: analyses,
	}
	for _, a := range analyses {
		summary, err := s.persistSnapshot(ctx, runID, agent.ID(), a)
		if err != nil {
			return nil, err
		}
		result.Snapshots = append(result.Snapshots, summary)
	}

	result.RuntimeMs = time.Since(startTime).Milliseconds()
	return result, nil
}

func (s *AnalysisService) persistSnapshot(ctx context.Context, runID core.RunID, agentID core.AgentID, a analysis.Analysis) (SnapshotSummary, error) {
	envelope, err := analysis.Encode(a)
	if err != nil {
		return SnapshotSummary{}, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}

	schema, _ := analysis.SchemaVersion(a.Kind())
	rec := ports.SnapshotRecord{
		ID:          core.SnapshotID(core.NewID()),
		RunID:       runID,
		AgentID:     agentID,
		Kind:        a.Kind(),
		Schema:      schema,
		Fingerprint: core.NewHash(envelope),
		Envelope:    envelope,
		CreatedAt:   core.Now(),
	}
	if err := s.store.SaveSnapshot(ctx, rec); err != nil {
		return SnapshotSummary{}, fmt.Errorf("save %s snapshot: %w", a.Kind(), err)
	}

	return SnapshotSummary{
		SnapshotID: rec.ID,
		Kind:       a.Kind(),
		Elements:   a.ElementNames(),
		Stats:      a.Stats(),
	}, nil
}

// Diff loads two persisted snapshots and returns the structural difference of
// the current one against the previous one. Both snapshots must hold the same
// analysis kind.
func (s *AnalysisService) Diff(ctx context.Context, currentID, previousID core.SnapshotID) (analysis.Analysis, error) {
	current, err := s.loadAnalysis(ctx, currentID)
	if err != nil {
		return nil, err
	}
	previous, err := s.loadAnalysis(ctx, previousID)
	if err != nil {
		return nil, err
	}
	diff, err := current.DifferenceTo(previous)
	if err != nil {
		return nil, fmt.Errorf("diff %s against %s: %w", currentID, previousID, err)
	}
	return diff, nil
}

func (s *AnalysisService) loadAnalysis(ctx context.Context, id core.SnapshotID) (analysis.Analysis, error) {
	rec, err := s.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	a, err := analysis.Decode(rec.Envelope)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return a, nil
}

// LatestDiff diffs an agent's newest snapshot of the given kind against the
// one recorded before it.
func (s *AnalysisService) LatestDiff(ctx context.Context, agentID core.AgentID, kind analysis.Kind) (analysis.Analysis, error) {
	records, err := s.store.ListSnapshots(ctx, ports.SnapshotFilters{
		AgentID: &agentID,
		Kind:    &kind,
		Limit:   2,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s snapshots: %w", kind, err)
	}
	if len(records) < 2 {
		return nil, core.ErrSnapshotNotFound
	}
	return s.Diff(ctx, records[0].ID, records[1].ID)
}

// WriteReports writes one textual report per analyzed variant into dir, plus
// the visual artifacts under dir/visual/<kind>. When console is true each
// report is echoed to standard output as it is written.
func (s *AnalysisService) WriteReports(result *RunResult, dir string, console bool) error {
	if result == nil {
		return errors.InvalidInput("run result is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	for _, a := range result.analyses {
		reportPath := filepath.Join(dir, fmt.Sprintf("%s_report.txt", a.Kind()))
		if err := analysis.SaveReport(a, reportPath, console); err != nil {
			return fmt.Errorf("write %s report: %w", a.Kind(), err)
		}
		visualDir := filepath.Join(dir, "visual", a.Kind().String())
		if err := analysis.SaveVisualReport(a, visualDir, true); err != nil {
			return fmt.Errorf("write %s visual report: %w", a.Kind(), err)
		}
	}
	return nil
}

// WriteSnapshots writes one pretty-printed snapshot document per analyzed
// variant into dir.
func (s *AnalysisService) WriteSnapshots(result *RunResult, dir string) error {
	if result == nil {
		return errors.InvalidInput("run result is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	for _, a := range result.analyses {
		path := filepath.Join(dir, fmt.Sprintf("%s.json", a.Kind()))
		if err := analysis.SaveJSON(a, path); err != nil {
			return fmt.Errorf("write %s snapshot: %w", a.Kind(), err)
		}
	}
	return nil
}

// ExportWorkbook renders the run into a spreadsheet at path.
func (s *AnalysisService) ExportWorkbook(result *RunResult, path string) error {
	if result == nil {
		return errors.InvalidInput("run result is required")
	}
	if s.exporter == nil {
		return errors.InternalError("no workbook exporter configured")
	}
	return s.exporter.ExportWorkbook(path, ports.WorkbookExport{
		RunID:    result.RunID,
		AgentID:  result.AgentID,
		Analyses: result.analyses,
	})
}

// Kinds returns the registered analysis kinds in lexicographic order.
func (s *AnalysisService) Kinds() []string {
	kinds := analysis.RegisteredKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
