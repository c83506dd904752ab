package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	_ "interestingness/adapters/analyses"
	"interestingness/adapters/postgres"
	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/internal/migration"
	"interestingness/ports"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [snapshot_dir agent_id]")
	}

	databaseURL := os.Args[1]

	// Connect to database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		log.Fatalf("Failed to run schema migrations: %v", err)
	}
	log.Println("Schema migrations complete")

	if len(os.Args) < 4 {
		return
	}

	snapshotDir := os.Args[2]
	agentID, err := core.ParseAgentID(os.Args[3])
	if err != nil {
		log.Fatalf("Invalid agent id: %v", err)
	}
	runID := core.RunID(core.NewID())

	log.Printf("Importing snapshots from %s for agent %s", snapshotDir, agentID)

	files, err := findSnapshotFiles(snapshotDir)
	if err != nil {
		log.Fatalf("Failed to find snapshot files: %v", err)
	}
	log.Printf("Found %d snapshot files to import", len(files))

	store := postgres.NewSnapshotRepository(db)

	imported := 0
	skipped := 0

	for _, file := range files {
		rec, err := loadSnapshotRecord(file, runID, agentID)
		if err != nil {
			log.Printf("Failed to load snapshot from %s: %v", file, err)
			skipped++
			continue
		}

		if err := store.SaveSnapshot(ctx, *rec); err != nil {
			log.Printf("Failed to save snapshot from %s: %v", file, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported %s snapshot from %s", rec.Kind, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped under run %s", imported, skipped, runID)
}

func findSnapshotFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// loadSnapshotRecord decodes a snapshot envelope file and wraps it in a
// fresh record. The envelope is re-encoded so the stored bytes and
// fingerprint stay canonical regardless of how the file was formatted.
func loadSnapshotRecord(path string, runID core.RunID, agentID core.AgentID) (*ports.SnapshotRecord, error) {
	a, err := analysis.LoadJSON(path)
	if err != nil {
		return nil, err
	}

	envelope, err := analysis.Encode(a)
	if err != nil {
		return nil, err
	}

	schema, _ := analysis.SchemaVersion(a.Kind())
	rec := &ports.SnapshotRecord{
		ID:          core.SnapshotID(core.NewID()),
		RunID:       runID,
		AgentID:     agentID,
		Kind:        a.Kind(),
		Schema:      schema,
		Fingerprint: core.NewHash(envelope),
		Envelope:    envelope,
		CreatedAt:   core.Now(),
	}
	return rec, nil
}
