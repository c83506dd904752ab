package ports

import (
	"context"

	"interestingness/domain/analysis"
	"interestingness/domain/core"
)

// SnapshotRecord is a persisted analysis snapshot together with the
// metadata needed to find it again. Envelope holds the full versioned
// snapshot document produced by analysis.Encode.
type SnapshotRecord struct {
	ID          core.SnapshotID `json:"id" db:"id"`
	RunID       core.RunID      `json:"run_id" db:"run_id"`
	AgentID     core.AgentID    `json:"agent_id" db:"agent_id"`
	Kind        analysis.Kind   `json:"kind" db:"kind"`
	Schema      int             `json:"schema" db:"schema"`
	Fingerprint core.Hash       `json:"fingerprint" db:"fingerprint"`
	Envelope    []byte          `json:"envelope" db:"envelope"`
	CreatedAt   core.Timestamp  `json:"created_at" db:"created_at"`
}

// SnapshotFilters narrows snapshot listings. Nil fields match everything.
type SnapshotFilters struct {
	RunID   *core.RunID
	AgentID *core.AgentID
	Kind    *analysis.Kind
	Limit   int
	Offset  int
}

// AnalysisStore persists analysis snapshots.
type AnalysisStore interface {
	// SaveSnapshot stores a snapshot record, replacing any record with
	// the same ID.
	SaveSnapshot(ctx context.Context, rec SnapshotRecord) error

	// GetSnapshot retrieves a snapshot by ID. A missing snapshot fails
	// with core.ErrSnapshotNotFound.
	GetSnapshot(ctx context.Context, id core.SnapshotID) (*SnapshotRecord, error)

	// ListSnapshots returns matching records, newest first.
	ListSnapshots(ctx context.Context, filters SnapshotFilters) ([]SnapshotRecord, error)

	// LatestSnapshot returns the newest record for an agent and kind. A
	// missing combination fails with core.ErrSnapshotNotFound.
	LatestSnapshot(ctx context.Context, agentID core.AgentID, kind analysis.Kind) (*SnapshotRecord, error)
}
