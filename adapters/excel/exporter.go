package excel

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"interestingness/domain/analysis"
	"interestingness/ports"
)

// Exporter renders completed analysis runs into a single workbook: an
// overview sheet with per-kind statistics and one sheet per kind holding the
// findings with a column chart of element sizes.
type Exporter struct{}

// NewExporter creates a workbook exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportWorkbook implements ports.WorkbookExporter.
func (e *Exporter) ExportWorkbook(path string, export ports.WorkbookExport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeOverviewSheet(f, export); err != nil {
		return err
	}
	for _, a := range export.Analyses {
		if err := writeKindSheet(f, a); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeOverviewSheet writes the run metadata block and one stat row per
// kind and metric.
func writeOverviewSheet(f *excelize.File, export ports.WorkbookExport) error {
	sheet := "Overview"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create overview sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	meta := [][]interface{}{
		{"run_id", export.RunID.String()},
		{"agent_id", export.AgentID.String()},
		{"exported_at", time.Now().UTC().Format(time.RFC3339)},
	}
	for r, pair := range meta {
		for c, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	headerRow := len(meta) + 2
	for c, h := range []string{"kind", "stat", "value"} {
		cell, _ := excelize.CoordinatesToCellName(c+1, headerRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := headerRow + 1
	for _, a := range export.Analyses {
		stats := a.Stats()
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for c, v := range []interface{}{a.Kind().String(), k, stats[k]} {
				cell, _ := excelize.CoordinatesToCellName(c+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}
	return nil
}

// writeKindSheet writes one variant's findings: the element table with a
// column chart of element sizes, then every member sample below it.
func writeKindSheet(f *excelize.File, a analysis.Analysis) error {
	sheet := a.Kind().String()
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", sheet, err)
	}

	if err := f.SetCellValue(sheet, "A1", "element"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B1", "samples"); err != nil {
		return err
	}

	elements := a.Elements()
	names := elements.Names()
	for i, name := range names {
		row := i + 2
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, labelCell, name); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, valueCell, elements[name].Len()); err != nil {
			return err
		}
	}
	if len(names) > 0 {
		if err := addColumnChart(f, sheet, "D2", fmt.Sprintf("%s element sizes", sheet), 2, len(names)+1); err != nil {
			return err
		}
	}

	return writeSampleRows(f, sheet, names, elements, len(names)+3)
}

// writeSampleRows writes one row per element member sample, starting at
// startRow.
func writeSampleRows(f *excelize.File, sheet string, names []string, elements analysis.Elements, startRow int) error {
	for c, h := range []string{"element", "state", "action", "reward", "next_state"} {
		cell, _ := excelize.CoordinatesToCellName(c+1, startRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := startRow + 1
	for _, name := range names {
		for _, s := range elements[name].Sorted() {
			for c, v := range []interface{}{name, s.State, s.Action, s.Reward, s.NextState} {
				cell, _ := excelize.CoordinatesToCellName(c+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}
	return nil
}
