package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	_ "interestingness/adapters/analyses"
	"interestingness/adapters/excel"
	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/history"
	"interestingness/internal/errors"
	"interestingness/internal/testkit"
	"interestingness/ports"
)

func newTestService(kit *testkit.TestKit) *AnalysisService {
	return NewAnalysisService(kit.Store, excel.NewExporter(), kit.Helper)
}

func TestAnalysisService_RunAll(t *testing.T) {
	kit := testkit.NewTestKit()
	service := newTestService(kit)
	ctx := context.Background()

	result, err := service.RunAll(ctx, kit.Agent, "")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, kit.Agent.ID(), result.AgentID)

	kinds := make([]string, len(result.Snapshots))
	for i, s := range result.Snapshots {
		kinds[i] = s.Kind.String()
		assert.NotEmpty(t, s.SnapshotID)
		assert.NotEmpty(t, s.Stats)
	}
	assert.Equal(t, []string{"rare_outcome", "reward_outlier", "state_frequency"}, kinds)

	// The planted structure registers in every variant.
	byKind := make(map[analysis.Kind]SnapshotSummary)
	for _, s := range result.Snapshots {
		byKind[s.Kind] = s
	}
	assert.Contains(t, byKind["state_frequency"].Elements, "frequent-state-1")
	assert.Contains(t, byKind["state_frequency"].Elements, "infrequent-state-9")
	assert.Contains(t, byKind["rare_outcome"].Elements, "rare-outcome-1-0-11")
	assert.Contains(t, byKind["reward_outlier"].Elements, "reward-outlier-high-10-2")

	// Every snapshot is persisted and decodable.
	records, err := kit.Store.ListSnapshots(ctx, ports.SnapshotFilters{RunID: &result.RunID})
	require.NoError(t, err)
	require.Len(t, records, len(result.Snapshots))
	for _, rec := range records {
		decoded, err := analysis.Decode(rec.Envelope)
		require.NoError(t, err)
		assert.Equal(t, rec.Kind, decoded.Kind())
		assert.Equal(t, byKind[rec.Kind].Elements, decoded.ElementNames())
		assert.Equal(t, core.NewHash(rec.Envelope), rec.Fingerprint)
	}
}

func TestAnalysisService_RunAllRequiresAgent(t *testing.T) {
	kit := testkit.NewTestKit()
	service := newTestService(kit)

	_, err := service.RunAll(context.Background(), nil, "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAnalysisService_LatestDiffFindsNewElements(t *testing.T) {
	kit := testkit.NewTestKit()
	service := newTestService(kit)
	ctx := context.Background()

	cfg := testkit.DefaultSyntheticConfig()
	full := testkit.SyntheticHistory(cfg)

	// The earlier run is the same history without the lone-state visit.
	var trimmed []history.Sample
	for _, s := range full.Samples() {
		if s.State != cfg.LoneState {
			trimmed = append(trimmed, s)
		}
	}

	before := testkit.NewScriptedAgent("agent-x", history.FromSamples(trimmed))
	_, err := service.RunAll(ctx, before, "")
	require.NoError(t, err)

	after := testkit.NewScriptedAgent("agent-x", full)
	_, err = service.RunAll(ctx, after, "")
	require.NoError(t, err)

	diff, err := service.LatestDiff(ctx, "agent-x", "state_frequency")
	require.NoError(t, err)
	assert.Contains(t, diff.ElementNames(), "infrequent-state-9")
}

func TestAnalysisService_LatestDiffOfIdenticalRunsIsEmpty(t *testing.T) {
	kit := testkit.NewTestKit()
	service := newTestService(kit)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := service.RunAll(ctx, kit.Agent, "")
		require.NoError(t, err)
	}

	for _, kind := range analysis.RegisteredKinds() {
		diff, err := service.LatestDiff(ctx, kit.Agent.ID(), kind)
		require.NoError(t, err)
		assert.Empty(t, diff.ElementNames(), "kind %s", kind)
	}
}

func TestAnalysisService_DiffErrors(t *testing.T) {
	kit := testkit.NewTestKit()
	service := newTestService(kit)
	ctx := context.Background()

	result, err := service.RunAll(ctx, kit.Agent, "")
	require.NoError(t, err)

	_, err = service.Diff(ctx, result.Snapshots[0].SnapshotID, "missing")
	assert.True(t, core.IsNotFoundError(err), "got %v", err)

	_, err = service.Diff(ctx, result.Snapshots[0].SnapshotID, result.Snapshots[1].SnapshotID)
	assert.True(t, core.IsContractViolation(err), "got %v", err)

	_, err = service.LatestDiff(ctx, kit.Agent.ID(), "state_frequency")
	assert.True(t, core.IsNotFoundError(err), "single run has no previous snapshot")
}

func TestAnalysisService_WriteReportsAndSnapshots(t *testing.T) {
	kit := testkit.NewTestKit()
	service := newTestService(kit)
	ctx := context.Background()

	result, err := service.RunAll(ctx, kit.Agent, "")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, service.WriteReports(result, dir, false))
	require.NoError(t, service.WriteSnapshots(result, filepath.Join(dir, "snapshots")))

	for _, s := range result.Snapshots {
		kind := s.Kind.String()

		report, err := os.ReadFile(filepath.Join(dir, kind+"_report.txt"))
		require.NoError(t, err)
		assert.NotEmpty(t, report)

		series := filepath.Join(dir, "visual", kind, kind+"_series.csv")
		if _, err := os.Stat(series); err != nil {
			t.Errorf("missing visual artifact %s: %v", series, err)
		}

		loaded, err := analysis.LoadJSON(filepath.Join(dir, "snapshots", kind+".json"))
		require.NoError(t, err)
		assert.Equal(t, s.Kind, loaded.Kind())
		assert.Equal(t, s.Elements, loaded.ElementNames())
	}
}

func TestAnalysisService_ExportWorkbook(t *testing.T) {
	kit := testkit.NewTestKit()
	service := newTestService(kit)
	ctx := context.Background()

	result, err := service.RunAll(ctx, kit.Agent, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, service.ExportWorkbook(result, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "rare_outcome", "reward_outlier", "state_frequency"}, f.GetSheetList())

	runID, err := f.GetCellValue("Overview", "B1")
	require.NoError(t, err)
	assert.Equal(t, result.RunID.String(), runID)

	header, err := f.GetCellValue("state_frequency", "A1")
	require.NoError(t, err)
	assert.Equal(t, "element", header)

	first, err := f.GetCellValue("state_frequency", "A2")
	require.NoError(t, err)
	assert.NotEmpty(t, first)
}
