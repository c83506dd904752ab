package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ChartPoint is one labeled value in a chart series.
type ChartPoint struct {
	Label string
	Value float64
}

// WriteColumnChart writes a single-sheet workbook holding the points as a
// label/value table with a column chart next to it.
func WriteColumnChart(path, title string, points []ChartPoint) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Chart"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create chart sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := writePointTable(f, sheet, title, points); err != nil {
		return err
	}
	if len(points) > 0 {
		if err := addColumnChart(f, sheet, "D2", title, 2, len(points)+1); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save chart workbook: %w", err)
	}
	return nil
}

// writePointTable fills column A with labels and column B with values,
// starting under a header row.
func writePointTable(f *excelize.File, sheet, valueHeader string, points []ChartPoint) error {
	if err := f.SetCellValue(sheet, "A1", "label"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B1", valueHeader); err != nil {
		return err
	}
	for i, p := range points {
		row := i + 2
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, labelCell, p.Label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, valueCell, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// addColumnChart anchors a column chart at cell, charting the value column
// over the label column between firstRow and lastRow.
func addColumnChart(f *excelize.File, sheet, cell, title string, firstRow, lastRow int) error {
	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheet),
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d", sheet, firstRow, lastRow),
			Values:     fmt.Sprintf("%s!$B$%d:$B$%d", sheet, firstRow, lastRow),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
	}
	if err := f.AddChart(sheet, cell, chart); err != nil {
		return fmt.Errorf("failed to add column chart: %w", err)
	}
	return nil
}
