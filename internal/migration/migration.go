package migration

import (
	"context"

	"interestingness/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSnapshotsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_snapshots table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_snapshots indexes")
	}

	return nil
}

func (r *MigrationRunner) createSnapshotsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_snapshots (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			agent_id VARCHAR(255) NOT NULL,
			kind VARCHAR(100) NOT NULL,
			schema INTEGER NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			envelope JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_analysis_snapshots_run_id ON analysis_snapshots(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_analysis_snapshots_agent_kind ON analysis_snapshots(agent_id, kind, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_analysis_snapshots_kind ON analysis_snapshots(kind)",
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}

	return nil
}
