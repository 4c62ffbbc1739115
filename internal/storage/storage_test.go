package storage_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/domain"
	"visualeditor/internal/errs"
	"visualeditor/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// SQL stores against a temporary sqlite file
// ─────────────────────────────────────────────────────────────

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), "oracle", "x")
	assert.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		db, err := storage.Open(context.Background(), "sqlite", path)
		require.NoError(t, err)
		assert.Equal(t, storage.SQLite, db.Dialect())
		require.NoError(t, db.Close())
	}
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	docs := storage.NewDocumentStore(openTestDB(t))

	d := &domain.Document{Name: "Home", ValueJSON: `{"blocks":[]}`}
	require.NoError(t, docs.CreateDocument(ctx, d))
	require.NotEmpty(t, d.ID)
	assert.False(t, d.CreatedAt.IsZero())

	got, err := docs.GetDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", got.Name)
	assert.Equal(t, `{"blocks":[]}`, got.ValueJSON)

	d.Name = "Landing"
	d.ValueJSON = `{"blocks":[{"id":"a"}]}`
	require.NoError(t, docs.UpdateDocument(ctx, d))

	got, err = docs.GetDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Landing", got.Name)
	assert.Equal(t, `{"blocks":[{"id":"a"}]}`, got.ValueJSON)
}

func TestDocumentStore_NotFound(t *testing.T) {
	ctx := context.Background()
	docs := storage.NewDocumentStore(openTestDB(t))

	_, err := docs.GetDocument(ctx, "missing")
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))

	err = docs.UpdateDocument(ctx, &domain.Document{ID: "missing", ValueJSON: "{}"})
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))

	err = docs.DeleteDocument(ctx, "missing")
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))
}

func TestDocumentStore_ListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	docs := storage.NewDocumentStore(openTestDB(t))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, docs.CreateDocument(ctx, &domain.Document{ID: id, Name: id, ValueJSON: "{}"}))
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, docs.UpdateDocument(ctx, &domain.Document{ID: "a", Name: "a", ValueJSON: "{}"}))

	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
	assert.Equal(t, "b", list[2].ID)
	assert.Empty(t, list[0].ValueJSON)
}

func TestSnapshotStore_PrunesToLimit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	snaps := storage.NewSnapshotStore(db, 3)

	for i := 1; i <= 5; i++ {
		s, err := snaps.PushSnapshot(ctx, "doc", fmt.Sprintf("step %d", i), "{}")
		require.NoError(t, err)
		assert.Equal(t, int64(i), s.Seq)
	}
	_, err := snaps.PushSnapshot(ctx, "other", "first", "{}")
	require.NoError(t, err)

	list, err := snaps.ListSnapshots(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 4, 5}, []int64{list[0].Seq, list[1].Seq, list[2].Seq})
	assert.Equal(t, "step 5", list[2].Label)

	other, err := snaps.ListSnapshots(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	require.NoError(t, snaps.ClearSnapshots(ctx, "doc"))
	list, err = snaps.ListSnapshots(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSnapshotStore_ZeroLimitKeepsAll(t *testing.T) {
	ctx := context.Background()
	snaps := storage.NewSnapshotStore(openTestDB(t), 0)
	for i := 0; i < 4; i++ {
		_, err := snaps.PushSnapshot(ctx, "doc", "edit", "{}")
		require.NoError(t, err)
	}
	list, err := snaps.ListSnapshots(ctx, "doc")
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestDeleteDocument_RemovesJournal(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	docs := storage.NewDocumentStore(db)
	snaps := storage.NewSnapshotStore(db, 10)

	d := &domain.Document{Name: "Doomed", ValueJSON: "{}"}
	require.NoError(t, docs.CreateDocument(ctx, d))
	_, err := snaps.PushSnapshot(ctx, d.ID, "edit", "{}")
	require.NoError(t, err)

	require.NoError(t, docs.DeleteDocument(ctx, d.ID))

	list, err := snaps.ListSnapshots(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
