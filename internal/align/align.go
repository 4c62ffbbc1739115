// Package align computes snap-guide candidates for a dragged block and
// decides whether a candidate position snaps to one of them.
package align

import (
	"math"

	"visualeditor/internal/domain"
)

// Tolerance is the snap distance in pixels. A candidate snaps when it is
// strictly closer than this.
const Tolerance = 5.0

// VLine is a vertical guide candidate: the dragged block's left edge snaps
// to Left, and the guide is drawn at x = ShowLeft.
type VLine struct {
	Left     float64 `json:"left"`
	ShowLeft float64 `json:"showLeft"`
}

// HLine is a horizontal guide candidate.
type HLine struct {
	Top     float64 `json:"top"`
	ShowTop float64 `json:"showTop"`
}

// Lines holds the candidates for both axes.
type Lines struct {
	X []VLine `json:"x"`
	Y []HLine `json:"y"`
}

// Guide is the guide to render. A nil coordinate hides that guide.
type Guide struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Empty reports whether no guide is shown.
func (g Guide) Empty() bool { return g.X == nil && g.Y == nil }

// Compute builds the candidate lines for a dragged block of the given size
// against others, which should be the unselected blocks as they were when
// the gesture started. Each other block contributes five lines per axis, in
// this order: start to start, center to center, end to end, dragged start
// to other end, dragged end to other start.
func Compute(width, height float64, others []domain.Block) Lines {
	lines := Lines{
		X: make([]VLine, 0, len(others)*5),
		Y: make([]HLine, 0, len(others)*5),
	}
	for _, o := range others {
		lines.Y = append(lines.Y,
			HLine{Top: o.Top, ShowTop: o.Top},
			HLine{Top: o.Top + o.Height/2 - height/2, ShowTop: o.Top + o.Height/2},
			HLine{Top: o.Top + o.Height - height, ShowTop: o.Top + o.Height},
			HLine{Top: o.Top + o.Height, ShowTop: o.Top + o.Height},
			HLine{Top: o.Top - height, ShowTop: o.Top},
		)
		lines.X = append(lines.X,
			VLine{Left: o.Left, ShowLeft: o.Left},
			VLine{Left: o.Left + o.Width/2 - width/2, ShowLeft: o.Left + o.Width/2},
			VLine{Left: o.Left + o.Width - width, ShowLeft: o.Left + o.Width},
			VLine{Left: o.Left + o.Width, ShowLeft: o.Left + o.Width},
			VLine{Left: o.Left - width, ShowLeft: o.Left},
		)
	}
	return lines
}

// Snap snaps left and top independently. The first line within Tolerance on
// each axis wins; otherwise the raw coordinate is kept and that guide is nil.
func Snap(lines Lines, left, top float64) (float64, float64, Guide) {
	var g Guide
	left, g.X = SnapLeft(lines, left)
	top, g.Y = SnapTop(lines, top)
	return left, top, g
}

// SnapLeft snaps only the horizontal position.
func SnapLeft(lines Lines, left float64) (float64, *float64) {
	for _, l := range lines.X {
		if math.Abs(left-l.Left) < Tolerance {
			show := l.ShowLeft
			return l.Left, &show
		}
	}
	return left, nil
}

// SnapTop snaps only the vertical position.
func SnapTop(lines Lines, top float64) (float64, *float64) {
	for _, l := range lines.Y {
		if math.Abs(top-l.Top) < Tolerance {
			show := l.ShowTop
			return l.Top, &show
		}
	}
	return top, nil
}
