package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/domain"
	"visualeditor/internal/errs"
	"visualeditor/internal/plugins"
	"visualeditor/internal/service"
	"visualeditor/internal/storage"
)

func newTestServer(t *testing.T, requireApproval bool) (*Server, *service.MockEmitter) {
	t.Helper()
	db, err := storage.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := domain.NewComponentRegistry()
	plugins.RegisterDefaults(reg)

	emitter := &service.MockEmitter{}
	editors := service.NewEditorService(storage.NewDocumentStore(db), emitter,
		service.WithJournal(storage.NewSnapshotStore(db, 20)),
		service.WithRegistry(reg),
	)
	s := New(context.Background(), Deps{
		Emitter:         emitter,
		Editors:         editors,
		RequireApproval: requireApproval,
		ApprovalTimeout: 2 * time.Second,
	})
	return s, emitter
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

func createActive(t *testing.T, s *Server) string {
	t.Helper()
	res, err := s.handleCreateDocument(context.Background(), call(map[string]any{"name": "Form"}))
	require.NoError(t, err)
	doc := decode[map[string]string](t, res)
	require.Equal(t, doc["id"], s.ActiveDocument())
	return doc["id"]
}

func drop(t *testing.T, s *Server, key string) blockSummary {
	t.Helper()
	res, err := s.handleDropComponent(context.Background(), call(map[string]any{"componentKey": key}))
	require.NoError(t, err)
	return decode[blockSummary](t, res)
}

func TestTools_RequireActiveDocument(t *testing.T) {
	s, _ := newTestServer(t, false)
	_, err := s.handleGetValue(context.Background(), call(nil))
	assert.Error(t, err)
}

func TestTools_DropAutoPlacesWithDefaultSize(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)

	a := drop(t, s, "button")
	assert.Equal(t, 0.0, a.Left)
	assert.Equal(t, 0.0, a.Top)
	assert.Equal(t, 88.0, a.Width)
	assert.Equal(t, 32.0, a.Height)

	b := drop(t, s, "button")
	assert.Equal(t, 110.0, b.Left, "first free column past the padding")
	assert.Equal(t, 0.0, b.Top)

	_, err := s.handleDropComponent(context.Background(), call(map[string]any{"componentKey": "video"}))
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))
}

func TestTools_DropAtPointCentres(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)

	res, err := s.handleDropComponent(context.Background(), call(map[string]any{
		"componentKey": "image", "x": 200.0, "y": 150.0, "width": 80.0, "height": 40.0,
	}))
	require.NoError(t, err)
	b := decode[blockSummary](t, res)
	assert.Equal(t, 160.0, b.Left)
	assert.Equal(t, 130.0, b.Top)
}

func TestTools_MoveBlocksSnapsAndRecordsDrag(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)
	drop(t, s, "button")
	b := drop(t, s, "button")

	res, err := s.handleMoveBlocks(context.Background(), call(map[string]any{
		"blockIds": b.ID, "dx": -3.0, "dy": 3.0,
	}))
	require.NoError(t, err)
	moved := decode[[]blockSummary](t, res)
	require.Len(t, moved, 1)
	assert.Equal(t, 107.0, moved[0].Left)
	assert.Equal(t, 0.0, moved[0].Top, "top snaps back to the other button")

	res, err = s.handleInvokeCommand(context.Background(), call(map[string]any{"name": "undo"}))
	require.NoError(t, err)
	h := decode[historyResult](t, res)
	assert.Equal(t, -1, h.Cursor)
	assert.Equal(t, []string{"drag"}, h.Steps)
	assert.Equal(t, 110.0, h.Blocks[1].Left)
}

func TestTools_MoveBlocksShiftLocksAxis(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)
	b := drop(t, s, "button")

	res, err := s.handleMoveBlocks(context.Background(), call(map[string]any{
		"blockIds": b.ID, "dx": 40.0, "dy": 20.0, "shift": true,
	}))
	require.NoError(t, err)
	moved := decode[[]blockSummary](t, res)
	require.Len(t, moved, 1)
	assert.Equal(t, 40.0, moved[0].Left)
	assert.Equal(t, 0.0, moved[0].Top, "vertical delta is dropped")
}

func TestTools_ResizeRespectsCapabilities(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)
	text := drop(t, s, "text")
	button := drop(t, s, "button")

	_, err := s.handleResizeBlock(context.Background(), call(map[string]any{
		"blockId": text.ID, "anchor": "right", "dx": 10.0, "dy": 0.0,
	}))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))

	res, err := s.handleResizeBlock(context.Background(), call(map[string]any{
		"blockId": button.ID, "anchor": "bottom_right", "dx": 12.0, "dy": 8.0,
	}))
	require.NoError(t, err)
	got := decode[blockSummary](t, res)
	assert.Equal(t, 100.0, got.Width)
	assert.Equal(t, 40.0, got.Height)

	_, err = s.handleResizeBlock(context.Background(), call(map[string]any{
		"blockId": button.ID, "anchor": "middle", "dx": 1.0, "dy": 1.0,
	}))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))
}

func TestTools_PlaceTopNeedsSelection(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)
	a := drop(t, s, "text")
	drop(t, s, "text")

	_, err := s.handleSelectBlocks(context.Background(), call(map[string]any{"blockIds": a.ID}))
	require.NoError(t, err)

	res, err := s.commandHandler("placeTop")(context.Background(), call(nil))
	require.NoError(t, err)
	h := decode[historyResult](t, res)
	assert.Equal(t, 2, h.Blocks[0].ZIndex)
	assert.Equal(t, 0, h.Blocks[1].ZIndex)
}

func TestTools_UnknownCommand(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)
	_, err := s.handleInvokeCommand(context.Background(), call(map[string]any{"name": "explode"}))
	assert.True(t, errs.Is(err, errs.ErrCodeUnknownCommand))
}

func TestTools_ImportRejectsMalformed(t *testing.T) {
	s, _ := newTestServer(t, false)
	id := createActive(t, s)
	drop(t, s, "text")

	_, err := s.handleImportValue(context.Background(), call(map[string]any{"value": `{"blocks":[{"top":"x"}]}`}))
	assert.True(t, errs.Is(err, errs.ErrCodeMalformedValue))

	v, err := s.editors.Value(id)
	require.NoError(t, err)
	assert.Len(t, v.Blocks, 1)
}

func TestTools_UpdateBlockMergesProps(t *testing.T) {
	s, _ := newTestServer(t, false)
	createActive(t, s)
	b := drop(t, s, "button")

	res, err := s.handleUpdateBlock(context.Background(), call(map[string]any{
		"blockId": b.ID, "props": `{"label":"Send","type":"primary"}`,
	}))
	require.NoError(t, err)
	got := decode[domain.Block](t, res)
	assert.Equal(t, "Send", got.Props["label"])

	_, err = s.handleUpdateBlock(context.Background(), call(map[string]any{
		"blockId": b.ID, "props": `[1,2]`,
	}))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))
}

func TestTools_ClearWaitsForApproval(t *testing.T) {
	s, emitter := newTestServer(t, true)
	createActive(t, s)
	drop(t, s, "text")

	go func() {
		var pending []service.EmittedEvent
		ok := assert.Eventually(t, func() bool {
			pending = emitter.Named(EventApprovalRequired)
			return len(pending) == 1
		}, time.Second, 10*time.Millisecond)
		if !ok {
			return
		}
		s.Approve(pending[0].Data.(PendingAction).ID)
	}()

	res, err := s.handleInvokeCommand(context.Background(), call(map[string]any{"name": "clear"}))
	require.NoError(t, err)
	h := decode[historyResult](t, res)
	assert.Empty(t, h.Blocks)
	assert.Zero(t, s.approval.Pending())
}

func TestTools_ClearRejected(t *testing.T) {
	s, emitter := newTestServer(t, true)
	id := createActive(t, s)
	drop(t, s, "text")

	go func() {
		var pending []service.EmittedEvent
		ok := assert.Eventually(t, func() bool {
			pending = emitter.Named(EventApprovalRequired)
			return len(pending) == 1
		}, time.Second, 10*time.Millisecond)
		if !ok {
			return
		}
		s.Reject(pending[0].Data.(PendingAction).ID)
	}()

	_, err := s.handleInvokeCommand(context.Background(), call(map[string]any{"name": "clear"}))
	assert.Error(t, err)

	v, err := s.editors.Value(id)
	require.NoError(t, err)
	assert.Len(t, v.Blocks, 1)
}

func TestResources_DocumentValue(t *testing.T) {
	s, _ := newTestServer(t, false)
	id := createActive(t, s)
	drop(t, s, "text")

	req := mcp.ReadResourceRequest{}
	req.Params.URI = documentURIPrefix + id + documentURISuffix
	contents, err := s.handleDocumentValueResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents).Text
	assert.Contains(t, text, `"componentKey": "text"`)
}

func TestDocumentIDFromURI(t *testing.T) {
	tests := []struct {
		uri, want string
	}{
		{"visualeditor://document/abc-123/value", "abc-123"},
		{"visualeditor://document/abc/blocks", ""},
		{"visualeditor://document/a/b/value", ""},
		{"notes://page/abc/blocks", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, documentIDFromURI(tt.uri), tt.uri)
	}
}
