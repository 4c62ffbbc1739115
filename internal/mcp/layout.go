package mcpserver

import (
	"math"

	"visualeditor/internal/domain"
)

const (
	GridSize = 10.0
	Padding  = 20.0 // gap kept around existing blocks
	MaxRowW  = 800.0
)

// LayoutEngine places agent-created blocks on the canvas so they don't
// overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func (le *LayoutEngine) rowWidth(container domain.Container) float64 {
	if container.Width > 0 {
		return container.Width
	}
	return le.maxRowW
}

// NextPosition finds the top-left grid position for a block of size
// (newW, newH) that keeps Padding clear of every existing block, scanning
// rows top to bottom within the container width.
func (le *LayoutEngine) NextPosition(container domain.Container, existing []domain.Block, newW, newH float64) (left, top float64) {
	if len(existing) == 0 {
		return 0, 0
	}

	occupied := make([]rect, len(existing))
	for i, b := range existing {
		occupied[i] = rect{
			x: b.Left - le.padding,
			y: b.Top - le.padding,
			w: b.Width + le.padding*2,
			h: b.Height + le.padding*2,
		}
	}

	maxW := le.rowWidth(container)
	maxY := 0.0
	for _, b := range existing {
		maxY = max(maxY, b.Top+b.Height)
	}

	candidate := rect{w: newW, h: newH}
	for y := 0.0; y <= maxY+le.padding; y += le.gridSize {
		for x := 0.0; x+newW <= maxW; x += le.gridSize {
			candidate.x, candidate.y = x, y
			overlaps := false
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.x, candidate.y
			}
		}
	}

	// below everything
	return 0, le.snap(maxY + le.padding)
}

// ArrangeGroup lays blocks out in rows from (startX, startY), wrapping at
// the container width. Positions are written in place.
func (le *LayoutEngine) ArrangeGroup(container domain.Container, blocks []domain.Block, startX, startY float64) []domain.Block {
	maxW := le.rowWidth(container)
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for i := range blocks {
		if x > le.snap(startX) && x+blocks[i].Width > maxW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		blocks[i].Left = x
		blocks[i].Top = y
		rowHeight = max(rowHeight, blocks[i].Height)
		x += le.snap(blocks[i].Width + le.padding)
	}

	return blocks
}
