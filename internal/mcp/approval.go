package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventEmitter allows the approval queue to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Approval events.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	DocumentID  string `json:"documentId"`
	CreatedAt   string `json:"createdAt"`
}

// actionResult is sent through the channel when user approves/rejects.
type actionResult struct {
	approved bool
}

// ApprovalQueue holds destructive agent calls (clear, delete) until the user
// approves or rejects them in the editor window.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan actionResult
	ctx     context.Context
	emitter EventEmitter
	timeout time.Duration
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter, timeout time.Duration) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan actionResult),
		ctx:     ctx,
		emitter: emitter,
		timeout: timeout,
	}
}

// Request emits an approval request and blocks until the user answers, the
// timeout passes or ctx is done.
func (q *ApprovalQueue) Request(ctx context.Context, tool, documentID, description string) error {
	id := uuid.New().String()
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		DocumentID:  documentID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case result := <-ch:
		if !result.approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-timer.C:
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-ctx.Done():
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return ctx.Err()
	}
}

// Approve marks a pending action as approved.
func (q *ApprovalQueue) Approve(actionID string) {
	q.resolve(actionID, true)
}

// Reject marks a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) {
	q.resolve(actionID, false)
}

// Pending returns the number of unanswered requests.
func (q *ApprovalQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- actionResult{approved: approved}:
	default:
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
