package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/domain"
	"visualeditor/internal/editor"
	"visualeditor/internal/errs"
	"visualeditor/internal/history"
	"visualeditor/internal/plugins"
	"visualeditor/internal/service"
	"visualeditor/internal/storage"
)

type fixture struct {
	svc     *service.EditorService
	emitter *service.MockEmitter
	docs    *storage.DocumentStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := storage.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "editor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := domain.NewComponentRegistry()
	plugins.RegisterDefaults(reg)

	n := 0
	emitter := &service.MockEmitter{}
	docs := storage.NewDocumentStore(db)
	svc := service.NewEditorService(docs, emitter,
		service.WithJournal(storage.NewSnapshotStore(db, 10)),
		service.WithRegistry(reg),
		service.WithIDGenerator(func() string { n++; return fmt.Sprintf("b%d", n) }),
	)
	t.Cleanup(func() { svc.Stop(context.Background()) })
	return fixture{svc: svc, emitter: emitter, docs: docs}
}

func dropAndMeasure(t *testing.T, svc *service.EditorService, docID, key string, x, y, w, h float64) string {
	t.Helper()
	var id string
	require.NoError(t, svc.With(docID, func(e *editor.Editor) error {
		b, err := e.Drop(key, x, y)
		if err != nil {
			return err
		}
		id = b.ID
		return e.Measure(b.ID, w, h)
	}))
	return id
}

func TestEditorService_SaveAndReopen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.svc.Create(ctx, "Landing")
	require.NoError(t, err)

	v, err := f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultContainer, v.Container)
	assert.Empty(t, v.Blocks)
	assert.False(t, f.svc.Dirty(doc.ID))

	id := dropAndMeasure(t, f.svc, doc.ID, "button", 200, 150, 80, 40)
	assert.True(t, f.svc.Dirty(doc.ID))

	require.NoError(t, f.svc.Save(ctx, doc.ID))
	assert.False(t, f.svc.Dirty(doc.ID))
	assert.Len(t, f.emitter.Named(service.EventSaved), 1)

	require.NoError(t, f.svc.Close(ctx, doc.ID))
	assert.False(t, f.svc.IsOpen(doc.ID))

	v, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, v.Blocks, 1)
	assert.Equal(t, id, v.Blocks[0].ID)
	assert.Equal(t, 160.0, v.Blocks[0].Left)
	assert.Equal(t, 130.0, v.Blocks[0].Top)
	assert.False(t, v.Blocks[0].AdjustPosition)
}

func TestEditorService_OpenTwiceReusesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Twice")
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	dropAndMeasure(t, f.svc, doc.ID, "text", 10, 10, 64, 22)

	v, err := f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, v.Blocks, 1, "the open session wins over the stored value")
	assert.Equal(t, []string{doc.ID}, f.svc.OpenIDs())
}

func TestEditorService_CloseSavesDirty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Dirty")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)

	dropAndMeasure(t, f.svc, doc.ID, "input", 100, 100, 180, 32)
	require.NoError(t, f.svc.Close(ctx, doc.ID))

	stored, err := f.docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.ValueJSON, `"componentKey":"input"`)
}

func TestEditorService_NotOpen(t *testing.T) {
	f := newFixture(t)
	err := f.svc.With("nope", func(*editor.Editor) error { return nil })
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))
	assert.True(t, errs.Is(f.svc.Save(context.Background(), "nope"), errs.ErrCodeNotFound))
	assert.True(t, errs.Is(f.svc.Close(context.Background(), "nope"), errs.ErrCodeNotFound))

	_, err = f.svc.Open(context.Background(), "nope")
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))
}

func TestEditorService_CreateRequiresName(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), "")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))
}

func TestEditorService_EmitsBlocksChanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Events")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)

	dropAndMeasure(t, f.svc, doc.ID, "text", 50, 50, 64, 22)

	events := f.emitter.Named(service.EventBlocksChanged)
	require.Len(t, events, 2, "one for the drop, one for the measurement")
	payload := events[1].Data.(map[string]any)
	assert.Equal(t, doc.ID, payload["documentId"])
	v := payload["value"].(domain.Value)
	require.Len(t, v.Blocks, 1)
	assert.Equal(t, 18.0, v.Blocks[0].Left)
}

func TestEditorService_JournalsHistorySteps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Journal")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)

	a := dropAndMeasure(t, f.svc, doc.ID, "text", 50, 50, 64, 22)
	dropAndMeasure(t, f.svc, doc.ID, "text", 150, 50, 64, 22)

	require.NoError(t, f.svc.With(doc.ID, func(e *editor.Editor) error {
		if err := e.SelectOnly(a); err != nil {
			return err
		}
		if err := e.Invoke(editor.CmdPlaceTop); err != nil {
			return err
		}
		return e.Undo()
	}))

	snaps, err := f.svc.Snapshots(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, editor.CmdPlaceTop, snaps[0].Label)
	assert.Equal(t, "undone:"+editor.CmdPlaceTop, snaps[1].Label)
	assert.Contains(t, snaps[0].ValueJSON, `"zIndex":2`)
}

func TestEditorService_RestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Restore")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)

	a := dropAndMeasure(t, f.svc, doc.ID, "text", 50, 50, 64, 22)
	b := dropAndMeasure(t, f.svc, doc.ID, "text", 150, 50, 64, 22)
	require.NoError(t, f.svc.With(doc.ID, func(e *editor.Editor) error {
		if err := e.SelectOnly(a); err != nil {
			return err
		}
		if err := e.Invoke(editor.CmdDelete); err != nil {
			return err
		}
		return e.Invoke(editor.CmdClear)
	}))

	snaps, err := f.svc.Snapshots(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	require.NoError(t, f.svc.RestoreSnapshot(ctx, doc.ID, snaps[0].Seq))
	v, err := f.svc.Value(doc.ID)
	require.NoError(t, err)
	require.Len(t, v.Blocks, 1)
	assert.Equal(t, b, v.Blocks[0].ID)

	h := history.State{}
	require.NoError(t, f.svc.With(doc.ID, func(e *editor.Editor) error {
		h = e.History()
		return nil
	}))
	assert.Equal(t, []string{editor.CmdDelete, editor.CmdClear, editor.CmdUpdateValue}, h.Names)

	err = f.svc.RestoreSnapshot(ctx, doc.ID, 999)
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))
}

func TestEditorService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Gone")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, doc.ID))
	assert.False(t, f.svc.IsOpen(doc.ID))

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEditorService_SaveDirty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clean, err := f.svc.Create(ctx, "Clean")
	require.NoError(t, err)
	dirty, err := f.svc.Create(ctx, "Dirty")
	require.NoError(t, err)
	for _, id := range []string{clean.ID, dirty.ID} {
		_, err := f.svc.Open(ctx, id)
		require.NoError(t, err)
	}
	dropAndMeasure(t, f.svc, dirty.ID, "image", 300, 300, 100, 100)

	f.svc.SaveDirty()

	assert.False(t, f.svc.Dirty(dirty.ID))
	saved := f.emitter.Named(service.EventSaved)
	require.Len(t, saved, 1)
	assert.Equal(t, dirty.ID, saved[0].Data.(map[string]any)["documentId"])
}

func TestEditorService_AutosaveSchedule(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.svc.StartAutosave("not a schedule"))
	assert.NoError(t, f.svc.StartAutosave(""))
	require.NoError(t, f.svc.StartAutosave("@every 1h"))
	f.svc.Stop(context.Background())
}

func TestEditorService_ImportJSON(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Imported")
	require.NoError(t, err)

	err = f.svc.ImportJSON(ctx, doc.ID, []byte(`{"container":{"width":640,"height":480},"blocks":[{"id":"x","componentKey":"text","top":10,"left":20}]}`))
	require.NoError(t, err)
	require.True(t, f.svc.IsOpen(doc.ID), "import opens the document")

	v, err := f.svc.Value(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 640.0, v.Container.Width)
	require.Len(t, v.Blocks, 1)

	err = f.svc.ImportJSON(ctx, doc.ID, []byte(`{"blocks":[{"id":"y"}]}`))
	assert.True(t, errs.Is(err, errs.ErrCodeMalformedValue))

	after, err := f.svc.Value(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, v, after, "a rejected import leaves the value untouched")
}

func TestEditorService_ReloadPicksUpExternalSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, "Shared")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, doc.ID)
	require.NoError(t, err)

	reloaded, err := f.svc.Reload(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, reloaded, "nothing newer in the store")

	// a second process writing to the same store
	other := service.NewEditorService(f.docs, nil)
	_, err = other.Open(ctx, doc.ID)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	dropAndMeasure(t, other, doc.ID, "text", 50, 50, 64, 22)
	require.NoError(t, other.Save(ctx, doc.ID))

	reloaded, err = f.svc.Reload(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded)
	v, err := f.svc.Value(doc.ID)
	require.NoError(t, err)
	assert.Len(t, v.Blocks, 1)
	assert.False(t, f.svc.Dirty(doc.ID))

	dropAndMeasure(t, f.svc, doc.ID, "text", 150, 50, 64, 22)
	time.Sleep(2 * time.Millisecond)
	dropAndMeasure(t, other, doc.ID, "image", 300, 300, 100, 100)
	require.NoError(t, other.Save(ctx, doc.ID))

	reloaded, err = f.svc.Reload(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, reloaded, "unsaved local edits win")

	_, err = f.svc.Reload(ctx, "nope")
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))
}
