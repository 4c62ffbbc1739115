// Package gesture implements the pointer gesture state machine used to move
// and resize blocks: Idle, then Moving or Resizing, then Idle again.
//
// The controller mutates the blocks it is given in place on every move so the
// host can render each tick. Committing the result to history is left to the
// OnEnd listeners.
package gesture

import (
	"math"

	"visualeditor/internal/align"
	"visualeditor/internal/domain"
	"visualeditor/internal/errs"
	"visualeditor/internal/geometry"
)

// AxisHysteresis is how far, in pixels, the perpendicular delta must exceed
// the current axis delta before a shift-constrained drag switches axis.
const AxisHysteresis = 12.0

// PointerEvent is a pointer position in client coordinates.
type PointerEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Shift   bool    `json:"shift"`
}

// Mode is the controller state.
type Mode int

const (
	Idle Mode = iota
	Moving
	Resizing
)

func (m Mode) String() string {
	switch m {
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

type axis int

const (
	axisNone axis = iota
	axisHorizontal
	axisVertical
)

type point struct{ left, top float64 }

type moveState struct {
	primary  *domain.Block
	start    point // primary block position at pointer-down
	targets  []*domain.Block
	startPos []point
	lines    align.Lines
	shift    bool
	axis     axis
}

type resizeState struct {
	block       *domain.Block
	anchor      Anchor
	start       point
	startWidth  float64
	startHeight float64
	wasResized  bool
}

// Controller tracks at most one gesture at a time.
type Controller struct {
	mode Mode

	startX, startY float64
	startScroll    float64
	scrollTop      float64
	lastX, lastY   float64
	hasMoved       bool
	guide          align.Guide
	move           moveState
	resize         resizeState

	onChange func()
	onGuide  func(align.Guide)

	OnStart Hook
	OnEnd   Hook
}

// New creates a controller. onChange runs after every tick that mutated a
// block; onGuide runs whenever the guide to render changes. Either may be nil.
func New(onChange func(), onGuide func(align.Guide)) *Controller {
	return &Controller{onChange: onChange, onGuide: onGuide}
}

// Mode returns the current state.
func (c *Controller) Mode() Mode { return c.mode }

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool { return c.mode != Idle }

// ScrollTop returns the last canvas scroll offset reported by Scroll.
func (c *Controller) ScrollTop() float64 { return c.scrollTop }

// BeginMove starts dragging the focused block blockID. Every focused block
// in blocks moves with it as one unit; the unfocused blocks, as they are
// now, provide the snap candidates.
func (c *Controller) BeginMove(ev PointerEvent, blockID string, blocks []*domain.Block) error {
	if c.Active() {
		return errs.New(errs.ErrCodeGestureActive, "a %s gesture is already in progress", c.mode)
	}
	var primary *domain.Block
	var targets []*domain.Block
	others := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.ID == blockID {
			primary = b
		}
		if b.Focus {
			targets = append(targets, b)
		} else {
			others = append(others, geometry.CloneBlock(*b))
		}
	}
	if primary == nil {
		return errs.New(errs.ErrCodeNotFound, "block %q not found", blockID)
	}
	if !primary.Focus {
		return errs.New(errs.ErrCodeInvalidInput, "block %q is not selected", blockID)
	}

	startPos := make([]point, len(targets))
	for i, b := range targets {
		startPos[i] = point{left: b.Left, top: b.Top}
	}
	c.move = moveState{
		primary:  primary,
		start:    point{left: primary.Left, top: primary.Top},
		targets:  targets,
		startPos: startPos,
		lines:    align.Compute(primary.Width, primary.Height, others),
		shift:    ev.Shift,
	}
	c.begin(Moving, ev)
	return nil
}

// BeginResize starts resizing blockID from the given anchor.
func (c *Controller) BeginResize(ev PointerEvent, anchor Anchor, blockID string, blocks []*domain.Block) error {
	if c.Active() {
		return errs.New(errs.ErrCodeGestureActive, "a %s gesture is already in progress", c.mode)
	}
	if !anchor.Horizontal.valid() || !anchor.Vertical.valid() {
		return errs.New(errs.ErrCodeInvalidInput, "invalid anchor %q/%q", anchor.Horizontal, anchor.Vertical)
	}
	var block *domain.Block
	for _, b := range blocks {
		if b.ID == blockID {
			block = b
			break
		}
	}
	if block == nil {
		return errs.New(errs.ErrCodeNotFound, "block %q not found", blockID)
	}
	c.resize = resizeState{
		block:       block,
		anchor:      anchor,
		start:       point{left: block.Left, top: block.Top},
		startWidth:  block.Width,
		startHeight: block.Height,
		wasResized:  block.HasResized,
	}
	c.begin(Resizing, ev)
	return nil
}

func (c *Controller) begin(mode Mode, ev PointerEvent) {
	c.mode = mode
	c.startX, c.startY = ev.ClientX, ev.ClientY
	c.lastX, c.lastY = ev.ClientX, ev.ClientY
	c.startScroll = c.scrollTop
	c.hasMoved = false
	c.guide = align.Guide{}
	c.OnStart.fire()
}

// Move applies a pointer-move. It does nothing while idle.
func (c *Controller) Move(ev PointerEvent) {
	if !c.Active() {
		return
	}
	c.lastX, c.lastY = ev.ClientX, ev.ClientY
	c.hasMoved = true
	c.apply()
}

// Scroll records the canvas scroll offset. During a gesture the last pointer
// position is re-applied so the block tracks the pointer while the canvas
// scrolls underneath it.
func (c *Controller) Scroll(top float64) {
	c.scrollTop = top
	if c.Active() && c.hasMoved {
		c.apply()
	}
}

func (c *Controller) apply() {
	dx := c.lastX - c.startX
	dy := c.lastY - c.startY + (c.scrollTop - c.startScroll)
	switch c.mode {
	case Moving:
		c.applyMove(dx, dy)
	case Resizing:
		c.applyResize(dx, dy)
	}
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller) applyMove(dx, dy float64) {
	m := &c.move
	if m.shift {
		m.axis = pickAxis(m.axis, dx, dy)
		switch m.axis {
		case axisHorizontal:
			dy = 0
		case axisVertical:
			dx = 0
		}
	}

	left, top := m.start.left+dx, m.start.top+dy
	var g align.Guide
	switch {
	case m.shift && m.axis == axisHorizontal:
		left, g.X = align.SnapLeft(m.lines, left)
	case m.shift && m.axis == axisVertical:
		top, g.Y = align.SnapTop(m.lines, top)
	case m.shift:
		// no movement yet, nothing to snap
	default:
		left, top, g = align.Snap(m.lines, left, top)
	}
	dx, dy = left-m.start.left, top-m.start.top

	for i, b := range m.targets {
		b.Left = m.startPos[i].left + dx
		b.Top = m.startPos[i].top + dy
	}
	c.setGuide(g)
}

// pickAxis locks onto the dominant axis at the first movement (ties go
// horizontal) and only switches once the other axis leads by more than
// AxisHysteresis.
func pickAxis(current axis, dx, dy float64) axis {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch current {
	case axisNone:
		if ax == 0 && ay == 0 {
			return axisNone
		}
		if ax >= ay {
			return axisHorizontal
		}
		return axisVertical
	case axisHorizontal:
		if ay-ax > AxisHysteresis {
			return axisVertical
		}
	case axisVertical:
		if ax-ay > AxisHysteresis {
			return axisHorizontal
		}
	}
	return current
}

func (c *Controller) applyResize(dx, dy float64) {
	r := &c.resize
	b := r.block
	b.Left, b.Width = resizeAxis(r.anchor.Horizontal, r.start.left, r.startWidth, dx)
	b.Top, b.Height = resizeAxis(r.anchor.Vertical, r.start.top, r.startHeight, dy)
	b.HasResized = true
}

// resizeAxis returns the new position and size on one axis. Sizes never go
// below zero; a start anchor keeps the far edge fixed when clamped.
func resizeAxis(d Direction, pos, size, delta float64) (float64, float64) {
	switch d {
	case Start:
		n := size - delta
		if n < 0 {
			return pos + size, 0
		}
		return pos + delta, n
	case End:
		return pos, math.Max(0, size+delta)
	default:
		return pos, size
	}
}

// End finishes the gesture, clears the guide and fires OnEnd. It reports
// whether any block changed. Calling End while idle is a no-op.
func (c *Controller) End() bool {
	if !c.Active() {
		return false
	}
	changed := c.changed()
	c.mode = Idle
	c.move = moveState{}
	c.resize = resizeState{}
	c.setGuide(align.Guide{})
	c.OnEnd.fire()
	return changed
}

func (c *Controller) changed() bool {
	switch c.mode {
	case Moving:
		for i, b := range c.move.targets {
			if b.Left != c.move.startPos[i].left || b.Top != c.move.startPos[i].top {
				return true
			}
		}
	case Resizing:
		r := c.resize
		return r.block.Left != r.start.left || r.block.Top != r.start.top ||
			r.block.Width != r.startWidth || r.block.Height != r.startHeight ||
			r.block.HasResized != r.wasResized
	}
	return false
}

func (c *Controller) setGuide(g align.Guide) {
	if sameGuide(c.guide, g) {
		return
	}
	c.guide = g
	if c.onGuide != nil {
		c.onGuide(g)
	}
}

// Guide returns the guide currently shown.
func (c *Controller) Guide() align.Guide { return c.guide }

func sameGuide(a, b align.Guide) bool {
	return samePtr(a.X, b.X) && samePtr(a.Y, b.Y)
}

func samePtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
