package align_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/align"
	"visualeditor/internal/domain"
)

func TestCompute_FiveLinesPerAxis(t *testing.T) {
	others := []domain.Block{{Left: 100, Top: 200, Width: 50, Height: 20}}
	lines := align.Compute(30, 10, others)

	assert.Equal(t, []align.VLine{
		{Left: 100, ShowLeft: 100},
		{Left: 110, ShowLeft: 125},
		{Left: 120, ShowLeft: 150},
		{Left: 150, ShowLeft: 150},
		{Left: 70, ShowLeft: 100},
	}, lines.X)
	assert.Equal(t, []align.HLine{
		{Top: 200, ShowTop: 200},
		{Top: 205, ShowTop: 210},
		{Top: 210, ShowTop: 220},
		{Top: 220, ShowTop: 220},
		{Top: 190, ShowTop: 200},
	}, lines.Y)
}

func TestSnap_Tolerance(t *testing.T) {
	others := []domain.Block{{Left: 100, Top: 500, Width: 50, Height: 50}}
	lines := align.Compute(50, 50, others)

	t.Run("within 5px snaps", func(t *testing.T) {
		left, _, g := align.Snap(lines, 104, 0)
		assert.Equal(t, 100.0, left)
		require.NotNil(t, g.X)
		assert.Equal(t, 100.0, *g.X)
		assert.Nil(t, g.Y)
	})

	t.Run("6px away does not snap", func(t *testing.T) {
		left, _, g := align.Snap(lines, 94, 0)
		assert.Equal(t, 94.0, left)
		assert.Nil(t, g.X)
	})

	t.Run("exactly 5px does not snap", func(t *testing.T) {
		left, _, _ := align.Snap(lines, 105, 0)
		assert.Equal(t, 105.0, left)
	})
}

func TestSnap_FirstMatchWins(t *testing.T) {
	others := []domain.Block{
		{Left: 100, Width: 10, Height: 10},
		{Left: 102, Width: 10, Height: 10},
	}
	lines := align.Compute(10, 10, others)
	left, _, g := align.Snap(lines, 101, 1000)
	assert.Equal(t, 100.0, left)
	require.NotNil(t, g.X)
	assert.Equal(t, 100.0, *g.X)
}

func TestSnap_NoOthers(t *testing.T) {
	left, top, g := align.Snap(align.Compute(10, 10, nil), 3, 4)
	assert.Equal(t, 3.0, left)
	assert.Equal(t, 4.0, top)
	assert.True(t, g.Empty())
}

func TestGuide_JSON(t *testing.T) {
	x := 12.5
	data, err := json.Marshal(align.Guide{X: &x})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 12.5, "y": null}`, string(data))
}
