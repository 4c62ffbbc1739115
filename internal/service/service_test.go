package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/service"
)

// ─────────────────────────────────────────────────────────────
// saveTracker tests
// ─────────────────────────────────────────────────────────────

func TestSaveTracker_Busy(t *testing.T) {
	var tr service.ExportedSaveTracker
	assert.False(t, tr.Busy("doc-1"))

	first := tr.Track("doc-1")
	second := tr.Track("doc-1")
	assert.True(t, tr.Busy("doc-1"))
	assert.False(t, tr.Busy("doc-2"), "other documents are independent")

	first()
	first()
	assert.True(t, tr.Busy("doc-1"), "a repeated done does not end the other save")
	second()
	assert.False(t, tr.Busy("doc-1"))
}

func TestSaveTracker_Wait(t *testing.T) {
	var tr service.ExportedSaveTracker
	done := tr.Track("doc-a")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, tr.Wait(ctx), "save still in flight")

	go func() {
		time.Sleep(20 * time.Millisecond)
		done()
	}()
	require.True(t, tr.Wait(context.Background()))
	assert.False(t, tr.Busy("doc-a"))
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)
	m.Emit(ctx, "test:event", nil)

	require.Len(t, m.Events, 3)
	assert.Equal(t, "test:event", m.Events[0].Event)
	assert.Len(t, m.Named("test:event"), 2)
	assert.Empty(t, m.Named("missing"))
}
