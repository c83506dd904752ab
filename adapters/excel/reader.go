package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"interestingness/domain/history"
)

// HistoryReader loads recorded interaction samples from spreadsheet files.
// Both .xlsx workbooks and plain .csv exports are accepted; the first row
// must name the state, action, reward and next_state columns.
type HistoryReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewHistoryReader creates a reader for the given file, picking the format
// from the file extension.
func NewHistoryReader(filePath string) *HistoryReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &HistoryReader{filePath: filePath, fileType: fileType}
}

// ReadHistory reads the sample log and rebuilds the interaction history.
func (r *HistoryReader) ReadHistory() (*history.InteractionHistory, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readWorkbookRows()
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("history file must have a header row and at least one sample row")
	}

	samples, err := parseSamples(rows)
	if err != nil {
		return nil, err
	}
	return history.FromSamples(samples), nil
}

// readWorkbookRows reads the first sheet of the workbook.
func (r *HistoryReader) readWorkbookRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func (r *HistoryReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// parseSamples converts header-addressed string rows into samples. Blank rows
// are skipped; anything else that fails to parse aborts the load with the
// offending row number.
func parseSamples(rows [][]string) ([]history.Sample, error) {
	cols := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, name := range []string{"state", "action", "reward", "next_state"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("history file is missing the %q column", name)
		}
	}

	samples := make([]history.Sample, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		state, err := cellInt(row, cols["state"])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad state: %w", i+2, err)
		}
		action, err := cellInt(row, cols["action"])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad action: %w", i+2, err)
		}
		reward, err := cellFloat(row, cols["reward"])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad reward: %w", i+2, err)
		}
		next, err := cellInt(row, cols["next_state"])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad next_state: %w", i+2, err)
		}

		samples = append(samples, history.Sample{State: state, Action: action, Reward: reward, NextState: next})
	}
	return samples, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellInt(row []string, idx int) (int, error) {
	if idx >= len(row) {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.Atoi(strings.TrimSpace(row[idx]))
}

func cellFloat(row []string, idx int) (float64, error) {
	if idx >= len(row) {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
}
