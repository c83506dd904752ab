package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/ports"

	"github.com/jmoiron/sqlx"
)

// SnapshotRepository implements ports.AnalysisStore for PostgreSQL
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository
func NewSnapshotRepository(db *sqlx.DB) ports.AnalysisStore {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot stores a snapshot record, replacing any record with the
// same ID.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, rec ports.SnapshotRecord) error {
	createdAt := rec.CreatedAt.Time()
	if rec.CreatedAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_snapshots (
			id, run_id, agent_id, kind, schema, fingerprint, envelope, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			agent_id = EXCLUDED.agent_id,
			kind = EXCLUDED.kind,
			schema = EXCLUDED.schema,
			fingerprint = EXCLUDED.fingerprint,
			envelope = EXCLUDED.envelope,
			created_at = EXCLUDED.created_at`,
		rec.ID.String(), rec.RunID.String(), rec.AgentID.String(), rec.Kind.String(),
		rec.Schema, rec.Fingerprint.String(), rec.Envelope, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", rec.ID, err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot by ID
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, id core.SnapshotID) (*ports.SnapshotRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, run_id, agent_id, kind, schema, fingerprint, envelope, created_at
		FROM analysis_snapshots
		WHERE id = $1
	`, id.String())

	rec, err := scanSnapshot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}
	return rec, nil
}

// ListSnapshots returns matching records, newest first
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, filters ports.SnapshotFilters) ([]ports.SnapshotRecord, error) {
	query := `
		SELECT id, run_id, agent_id, kind, schema, fingerprint, envelope, created_at
		FROM analysis_snapshots
		WHERE 1=1`
	args := []interface{}{}

	if filters.RunID != nil {
		args = append(args, filters.RunID.String())
		query += fmt.Sprintf(" AND run_id = $%d", len(args))
	}
	if filters.AgentID != nil {
		args = append(args, filters.AgentID.String())
		query += fmt.Sprintf(" AND agent_id = $%d", len(args))
	}
	if filters.Kind != nil {
		args = append(args, filters.Kind.String())
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var records []ports.SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// LatestSnapshot returns the newest record for an agent and kind
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context, agentID core.AgentID, kind analysis.Kind) (*ports.SnapshotRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, run_id, agent_id, kind, schema, fingerprint, envelope, created_at
		FROM analysis_snapshots
		WHERE agent_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, agentID.String(), kind.String())

	rec, err := scanSnapshot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get latest snapshot for %s/%s: %w", agentID, kind, err)
	}
	return rec, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*ports.SnapshotRecord, error) {
	var (
		rec         ports.SnapshotRecord
		id          string
		runID       string
		agentID     string
		kind        string
		fingerprint string
		createdAt   time.Time
	)
	if err := row.Scan(&id, &runID, &agentID, &kind, &rec.Schema, &fingerprint, &rec.Envelope, &createdAt); err != nil {
		return nil, err
	}
	rec.ID = core.SnapshotID(id)
	rec.RunID = core.RunID(runID)
	rec.AgentID = core.AgentID(agentID)
	rec.Kind = analysis.Kind(kind)
	rec.Fingerprint = core.Hash(fingerprint)
	rec.CreatedAt = core.NewTimestamp(createdAt)
	return &rec, nil
}
