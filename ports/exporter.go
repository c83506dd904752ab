package ports

import (
	"interestingness/domain/analysis"
	"interestingness/domain/core"
)

// WorkbookExport is the material a workbook exporter renders: one finished
// run and its analyses in kind order.
type WorkbookExport struct {
	RunID    core.RunID
	AgentID  core.AgentID
	Analyses []analysis.Analysis
}

// WorkbookExporter renders a completed analysis run into a spreadsheet.
type WorkbookExporter interface {
	ExportWorkbook(path string, export WorkbookExport) error
}
