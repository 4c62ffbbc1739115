package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/domain"
)

var canvas = domain.Container{Width: 800, Height: 500}

func TestNextPosition_EmptyCanvas(t *testing.T) {
	le := NewLayoutEngine()
	x, y := le.NextPosition(canvas, nil, 120, 32)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestNextPosition_RightOfExistingBlock(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Block{{Left: 0, Top: 0, Width: 100, Height: 40}}
	x, y := le.NextPosition(canvas, existing, 100, 40)
	assert.Equal(t, 120.0, x, "first free grid column past the padding")
	assert.Equal(t, 0.0, y)
}

func TestNextPosition_NeverOverlaps(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Block{
		{Left: 0, Top: 0, Width: 380, Height: 100},
		{Left: 400, Top: 0, Width: 380, Height: 100},
		{Left: 100, Top: 150, Width: 200, Height: 60},
	}
	x, y := le.NextPosition(canvas, existing, 300, 80)

	r := rect{x, y, 300, 80}
	for _, b := range existing {
		padded := rect{b.Left - Padding, b.Top - Padding, b.Width + Padding*2, b.Height + Padding*2}
		assert.False(t, r.intersects(padded), "(%.0f, %.0f) overlaps block at (%.0f, %.0f)", x, y, b.Left, b.Top)
	}
	assert.LessOrEqual(t, x+300, canvas.Width)
}

func TestNextPosition_FullRowsFallBelow(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Block{{Left: 0, Top: 0, Width: 800, Height: 100}}
	x, y := le.NextPosition(canvas, existing, 800, 40)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 120.0, y)
}

func TestArrangeGroup(t *testing.T) {
	le := NewLayoutEngine()
	blocks := []domain.Block{
		{ID: "1", Width: 300, Height: 200},
		{ID: "2", Width: 300, Height: 100},
		{ID: "3", Width: 300, Height: 200},
	}

	arranged := le.ArrangeGroup(canvas, blocks, 0, 0)
	require.Len(t, arranged, 3)

	assert.Equal(t, 0.0, arranged[0].Left)
	assert.Equal(t, 320.0, arranged[1].Left)
	assert.Equal(t, 0.0, arranged[2].Left, "third block wraps")
	assert.Equal(t, 220.0, arranged[2].Top)

	for i := 0; i < len(arranged); i++ {
		for j := i + 1; j < len(arranged); j++ {
			a := rect{arranged[i].Left, arranged[i].Top, arranged[i].Width, arranged[i].Height}
			b := rect{arranged[j].Left, arranged[j].Top, arranged[j].Width, arranged[j].Height}
			assert.False(t, a.intersects(b), "blocks %d and %d overlap", i, j)
		}
	}
}

func TestSnap(t *testing.T) {
	le := NewLayoutEngine()
	tests := []struct {
		input, want float64
	}{
		{0, 0},
		{4, 0},
		{5, 10},
		{14, 10},
		{26, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, le.snap(tt.input), "snap(%.0f)", tt.input)
	}
}
