// Package layer computes z-index changes that bring the selection to the top
// or send it to the bottom of the stack.
package layer

import (
	"math"

	"visualeditor/internal/domain"
	"visualeditor/internal/geometry"
)

// PlaceTop raises every focused block above every unfocused one, keeping
// the relative order inside the selection. blocks is modified in place.
// It reports whether any z-index changed.
func PlaceTop(blocks []domain.Block) bool {
	focus, unfocus := geometry.Partition(blocks)
	if len(focus) == 0 || len(unfocus) == 0 {
		return false
	}
	maxUnfocused, minFocused := math.MinInt, math.MaxInt
	for _, b := range unfocus {
		maxUnfocused = max(maxUnfocused, b.ZIndex)
	}
	for _, b := range focus {
		minFocused = min(minFocused, b.ZIndex)
	}
	if maxUnfocused-minFocused+1 < 0 {
		return false
	}
	shift := maxUnfocused - minFocused + 2
	for _, b := range focus {
		b.ZIndex += shift
	}
	return true
}

// PlaceBottom lowers every focused block below every unfocused one. When
// that would leave a negative z-index, the whole set is shifted up so the
// lowest block sits at zero. blocks is modified in place.
func PlaceBottom(blocks []domain.Block) bool {
	focus, unfocus := geometry.Partition(blocks)
	if len(focus) == 0 || len(unfocus) == 0 {
		return false
	}
	minUnfocused, maxFocused := math.MaxInt, math.MinInt
	for _, b := range unfocus {
		minUnfocused = min(minUnfocused, b.ZIndex)
	}
	for _, b := range focus {
		maxFocused = max(maxFocused, b.ZIndex)
	}
	if maxFocused-minUnfocused+1 < 0 {
		return false
	}
	shift := maxFocused - minUnfocused + 2
	for _, b := range focus {
		b.ZIndex -= shift
	}
	Normalize(blocks)
	return true
}

// Normalize shifts every z-index up by the same amount so none is negative.
func Normalize(blocks []domain.Block) {
	lowest := 0
	for _, b := range blocks {
		lowest = min(lowest, b.ZIndex)
	}
	if lowest == 0 {
		return
	}
	for i := range blocks {
		blocks[i].ZIndex -= lowest
	}
}
