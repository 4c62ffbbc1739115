package service

import (
	"context"
	"sync"
)

// ExportedSaveTracker is an exported alias so _test packages can test the tracker.
type ExportedSaveTracker = saveTracker

// ─────────────────────────────────────────────────────────────
// saveTracker: saves in flight, per document
// ─────────────────────────────────────────────────────────────

// saveTracker counts the saves being written so Stop can wait for them and
// an autosave tick can pass over a document an earlier save still holds.
// Saves of one document are serialised by the session mutex, not here.
type saveTracker struct {
	mu      sync.Mutex
	pending map[string]int
	wg      sync.WaitGroup
}

// Track registers a save of documentID. The returned func ends it and may
// be called more than once.
func (t *saveTracker) Track(documentID string) (done func()) {
	t.mu.Lock()
	if t.pending == nil {
		t.pending = make(map[string]int)
	}
	t.pending[documentID]++
	t.wg.Add(1)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			if t.pending[documentID] <= 1 {
				delete(t.pending, documentID)
			} else {
				t.pending[documentID]--
			}
			t.mu.Unlock()
			t.wg.Done()
		})
	}
}

// Busy reports whether a save of documentID is being written.
func (t *saveTracker) Busy(documentID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending[documentID] > 0
}

// Wait blocks until every tracked save has ended. It returns false when ctx
// ends first.
func (t *saveTracker) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
