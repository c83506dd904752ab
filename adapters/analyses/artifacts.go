package analyses

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"interestingness/adapters/excel"
	"interestingness/domain/analysis"
)

// Every variant writes the same artifact triple into its visual report
// directory: a CSV series, a plot-point JSON file, and a chart workbook.

func artifactName(kind analysis.Kind, suffix string) string {
	return fmt.Sprintf("%s_%s", kind, suffix)
}

func writeSeriesCSV(dir string, kind analysis.Kind, header []string, rows [][]string) error {
	path := filepath.Join(dir, artifactName(kind, "series.csv"))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writePointsJSON(dir string, kind analysis.Kind, points []excel.ChartPoint) error {
	type plotPoint struct {
		Label string  `json:"label"`
		Value float64 `json:"value"`
	}
	out := make([]plotPoint, len(points))
	for i, p := range points {
		out[i] = plotPoint{Label: p.Label, Value: p.Value}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(dir, artifactName(kind, "points.json")), data, 0o644)
}

func writeChartXLSX(dir string, kind analysis.Kind, title string, points []excel.ChartPoint) error {
	return excel.WriteColumnChart(filepath.Join(dir, artifactName(kind, "chart.xlsx")), title, points)
}

func writeVisualArtifacts(dir string, kind analysis.Kind, title string, header []string, rows [][]string, points []excel.ChartPoint) error {
	if err := writeSeriesCSV(dir, kind, header, rows); err != nil {
		return fmt.Errorf("write %s series: %w", kind, err)
	}
	if err := writePointsJSON(dir, kind, points); err != nil {
		return fmt.Errorf("write %s points: %w", kind, err)
	}
	if err := writeChartXLSX(dir, kind, title, points); err != nil {
		return fmt.Errorf("write %s chart: %w", kind, err)
	}
	return nil
}
