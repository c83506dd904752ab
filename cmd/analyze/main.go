package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	_ "interestingness/adapters/analyses"
	"interestingness/adapters/excel"
	"interestingness/app"
	"interestingness/domain/analysis"
	"interestingness/domain/history"
	"interestingness/domain/scenario"
	"interestingness/internal/config"
	"interestingness/internal/testkit"
)

func main() {
	in := flag.String("in", "", "input history path: JSON sample log, or .csv/.xlsx sample sheet")
	agentID := flag.String("agent", "agent", "agent identifier recorded with the snapshots")
	out := flag.String("out", "", "output directory (default: configured reports dir)")
	workbook := flag.String("workbook", "", "workbook path (default: <out>/run.xlsx)")
	diffAgainst := flag.String("diff-against", "", "directory of prior snapshot documents to diff against")
	console := flag.Bool("console", true, "mirror reports to stdout")
	flag.Parse()

	if *in == "" {
		log.Fatal("Usage: analyze -in history.json [-agent id] [-out dir] [-diff-against dir]")
	}

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	outDir := *out
	if outDir == "" {
		outDir = appConfig.Paths.ReportsDir
	}

	h, err := loadHistory(*in)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	log.Printf("Loaded %d samples from %s", h.Len(), *in)

	helper := scenario.NewHelper(appConfig.Analysis)
	agent := testkit.NewScriptedAgent(*agentID, h)
	service := app.NewAnalysisService(testkit.NewInMemoryAnalysisStore(), excel.NewExporter(), helper)

	ctx := context.Background()
	result, err := service.RunAll(ctx, agent, "")
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	for _, s := range result.Snapshots {
		log.Printf("%s: %d elements", s.Kind, len(s.Elements))
	}

	if err := service.WriteReports(result, outDir, *console); err != nil {
		log.Fatalf("Failed to write reports: %v", err)
	}
	if err := service.WriteSnapshots(result, filepath.Join(outDir, "snapshots")); err != nil {
		log.Fatalf("Failed to write snapshots: %v", err)
	}

	workbookPath := *workbook
	if workbookPath == "" {
		workbookPath = filepath.Join(outDir, "run.xlsx")
	}
	if err := service.ExportWorkbook(result, workbookPath); err != nil {
		log.Fatalf("Failed to export workbook: %v", err)
	}

	if *diffAgainst != "" {
		if err := writeDiffReports(result, *diffAgainst, outDir, *console); err != nil {
			log.Fatalf("Failed to write diff reports: %v", err)
		}
	}

	log.Printf("Run %s complete: %d snapshots in %s", result.RunID, len(result.Snapshots), outDir)
}

// loadHistory reads a recorded sample log and rebuilds the interaction
// history with its derived count tables. Spreadsheet logs are routed through
// the workbook reader, anything else is parsed as JSON.
func loadHistory(path string) (*history.InteractionHistory, error) {
	switch filepath.Ext(path) {
	case ".xlsx", ".csv":
		return excel.NewHistoryReader(path).ReadHistory()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h history.InteractionHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &h, nil
}

// writeDiffReports diffs each variant against the matching snapshot document
// in priorDir, skipping kinds that have no prior snapshot.
func writeDiffReports(result *app.RunResult, priorDir, outDir string, console bool) error {
	for _, a := range result.Analyses() {
		kind := a.Kind().String()
		priorPath := filepath.Join(priorDir, kind+".json")
		if _, err := os.Stat(priorPath); os.IsNotExist(err) {
			log.Printf("No prior %s snapshot in %s, skipping diff", kind, priorDir)
			continue
		}

		prior, err := analysis.LoadJSON(priorPath)
		if err != nil {
			return fmt.Errorf("load prior %s snapshot: %w", kind, err)
		}
		diff, err := a.DifferenceTo(prior)
		if err != nil {
			return fmt.Errorf("diff %s: %w", kind, err)
		}
		log.Printf("%s diff against %s: %d new elements", kind, priorPath, len(diff.ElementNames()))

		diffPath := filepath.Join(outDir, kind+"_diff.txt")
		if err := analysis.SaveReport(diff, diffPath, console); err != nil {
			return fmt.Errorf("write %s diff report: %w", kind, err)
		}
	}
	return nil
}
