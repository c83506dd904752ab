package excel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"interestingness/domain/history"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestHistoryReader_CSV(t *testing.T) {
	path := writeCSV(t, "state,action,reward,next_state\n1,0,0.5,2\n 2 , 1 , -1.25 , 1\n")

	h, err := NewHistoryReader(path).ReadHistory()
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}

	want := history.FromSamples([]history.Sample{
		{State: 1, Action: 0, Reward: 0.5, NextState: 2},
		{State: 2, Action: 1, Reward: -1.25, NextState: 1},
	})
	if !h.Fingerprint().Equals(want.Fingerprint()) {
		t.Errorf("loaded history %v does not match expected samples", h.Samples())
	}
	if h.StateVisits(2) != 1 {
		t.Errorf("StateVisits(2) = %d, want 1", h.StateVisits(2))
	}
}

func TestHistoryReader_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"state", "action", "reward", "next_state"},
		{1, 0, 0.5, 2},
		{2, 1, -1.25, 1},
		{1, 0, 0.5, 2},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	h, err := NewHistoryReader(path).ReadHistory()
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	if got := h.PairCount(1, 0); got != 2 {
		t.Errorf("PairCount(1, 0) = %d, want 2", got)
	}
	if got := h.MeanReward(2, 1); got != -1.25 {
		t.Errorf("MeanReward(2, 1) = %v, want -1.25", got)
	}
}

func TestHistoryReader_Errors(t *testing.T) {
	if _, err := NewHistoryReader(filepath.Join(t.TempDir(), "absent.csv")).ReadHistory(); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeCSV(t, "state,action,reward\n1,0,0.5\n")
	if _, err := NewHistoryReader(path).ReadHistory(); err == nil || !strings.Contains(err.Error(), "next_state") {
		t.Errorf("expected missing column error, got %v", err)
	}

	path = writeCSV(t, "state,action,reward,next_state\n1,0,abc,2\n")
	if _, err := NewHistoryReader(path).ReadHistory(); err == nil || !strings.Contains(err.Error(), "row 2: bad reward") {
		t.Errorf("expected row error, got %v", err)
	}
}
