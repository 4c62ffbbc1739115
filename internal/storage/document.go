package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"visualeditor/internal/domain"
	"visualeditor/internal/errs"
)

// DocumentStore manages documents in SQL.
type DocumentStore struct {
	db *DB
}

func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

var _ domain.DocumentStore = (*DocumentStore)(nil)

// CreateDocument inserts d, filling in a missing ID and the timestamps.
func (s *DocumentStore) CreateDocument(ctx context.Context, d *domain.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := s.db.exec(ctx, s.db.conn,
		`INSERT INTO documents (id, name, value_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.ValueJSON, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT id, name, value_json, created_at, updated_at FROM documents WHERE id = ?`), id,
	).Scan(&d.ID, &d.Name, &d.ValueJSON, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.ErrCodeNotFound, "document %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns every document, most recently updated first.
// ValueJSON is left empty.
func (s *DocumentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM documents ORDER BY updated_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocument writes the name and value of d and bumps UpdatedAt.
func (s *DocumentStore) UpdateDocument(ctx context.Context, d *domain.Document) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.exec(ctx, s.db.conn,
		`UPDATE documents SET name = ?, value_json = ?, updated_at = ? WHERE id = ?`,
		d.Name, d.ValueJSON, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.New(errs.ErrCodeNotFound, "document %q not found", d.ID)
	}
	return nil
}

// DeleteDocument removes a document and its journal.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.db.exec(ctx, tx, `DELETE FROM snapshots WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	res, err := s.db.exec(ctx, tx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.New(errs.ErrCodeNotFound, "document %q not found", id)
	}
	return tx.Commit()
}
