package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"visualeditor/internal/domain"
)

// SnapshotStore keeps the last N values of each document.
type SnapshotStore struct {
	db    *DB
	limit int
}

// NewSnapshotStore creates a journal keeping at most limit entries per
// document. A limit of zero or less keeps everything.
func NewSnapshotStore(db *DB, limit int) *SnapshotStore {
	return &SnapshotStore{db: db, limit: limit}
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)

// PushSnapshot appends a journal entry and prunes the oldest ones.
func (s *SnapshotStore) PushSnapshot(ctx context.Context, documentID, label, valueJSON string) (*domain.Snapshot, error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var last int64
	err = tx.QueryRowContext(ctx, s.db.rebind(
		`SELECT COALESCE(MAX(seq), 0) FROM snapshots WHERE document_id = ?`), documentID,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("read journal head: %w", err)
	}

	snap := &domain.Snapshot{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Seq:        last + 1,
		Label:      label,
		ValueJSON:  valueJSON,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.db.exec(ctx, tx,
		`INSERT INTO snapshots (id, document_id, seq, label, value_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.DocumentID, snap.Seq, snap.Label, snap.ValueJSON, snap.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	if s.limit > 0 {
		_, err = s.db.exec(ctx, tx,
			`DELETE FROM snapshots WHERE document_id = ? AND seq <= ?`,
			documentID, snap.Seq-int64(s.limit),
		)
		if err != nil {
			return nil, fmt.Errorf("prune snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns the journal of a document, oldest first.
func (s *SnapshotStore) ListSnapshots(ctx context.Context, documentID string) ([]domain.Snapshot, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id, document_id, seq, label, value_json, created_at
		 FROM snapshots WHERE document_id = ? ORDER BY seq ASC`), documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []domain.Snapshot{}
	for rows.Next() {
		var sn domain.Snapshot
		if err := rows.Scan(&sn.ID, &sn.DocumentID, &sn.Seq, &sn.Label, &sn.ValueJSON, &sn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// ClearSnapshots removes the journal of a document.
func (s *SnapshotStore) ClearSnapshots(ctx context.Context, documentID string) error {
	if _, err := s.db.exec(ctx, s.db.conn, `DELETE FROM snapshots WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}
