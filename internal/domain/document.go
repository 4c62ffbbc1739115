package domain

import (
	"context"
	"time"
)

// Document is a persisted canvas. ValueJSON holds the serialized Value.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ValueJSON string    `json:"valueJson"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is one journal entry written after a history step.
// Seq increases by one per document and orders the journal.
type Snapshot struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Seq        int64     `json:"seq"`
	Label      string    `json:"label"`
	ValueJSON  string    `json:"valueJson"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DocumentStore persists documents. Lookups of a missing document return an
// error carrying errs.ErrCodeNotFound.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, id string) error
}

// SnapshotStore keeps a bounded journal of values per document.
type SnapshotStore interface {
	PushSnapshot(ctx context.Context, documentID, label, valueJSON string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, documentID string) ([]Snapshot, error)
	ClearSnapshots(ctx context.Context, documentID string) error
}
