// Package geometry holds pure helpers over the canvas data model: deep copies,
// the focus/unfocus partition, drop-to-create and measurement correction.
// Nothing here keeps state between calls.
package geometry

import "visualeditor/internal/domain"

// CloneValue returns a structural deep copy of v.
func CloneValue(v domain.Value) domain.Value {
	return domain.Value{Container: v.Container, Blocks: CloneBlocks(v.Blocks)}
}

// CloneBlocks deep-copies blocks, including Props and Model. A nil input
// yields an empty, non-nil slice so JSON output is always an array.
func CloneBlocks(blocks []domain.Block) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = CloneBlock(b)
	}
	return out
}

// CloneBlock deep-copies one block.
func CloneBlock(b domain.Block) domain.Block {
	b.Props = cloneMap(b.Props)
	b.Model = cloneMap(b.Model)
	return b
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneAny(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = cloneMap(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Partition splits blocks into focused and unfocused pointers, both in
// sequence order. The pointers alias the input slice.
func Partition(blocks []domain.Block) (focus, unfocus []*domain.Block) {
	for i := range blocks {
		if blocks[i].Focus {
			focus = append(focus, &blocks[i])
		} else {
			unfocus = append(unfocus, &blocks[i])
		}
	}
	return focus, unfocus
}

// Unfocused returns copies of the unfocused blocks.
func Unfocused(blocks []domain.Block) []domain.Block {
	out := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		if !b.Focus {
			out = append(out, CloneBlock(b))
		}
	}
	return out
}

// IndexOf returns the position of the block with id, or -1.
func IndexOf(blocks []domain.Block, id string) int {
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// NewDropBlock builds the block created when a palette item is dropped at
// (offsetX, offsetY). Its size is unknown until the host measures it.
func NewDropBlock(id, componentKey string, offsetX, offsetY float64) domain.Block {
	return domain.Block{
		ID:             id,
		ComponentKey:   componentKey,
		Top:            offsetY,
		Left:           offsetX,
		AdjustPosition: true,
	}
}

// ApplyMeasure records a rendered size on b. The first measurement after a
// drop recenters the block on the drop point and clears AdjustPosition;
// later measurements only update the size while the user has not resized.
// It reports whether b changed.
func ApplyMeasure(b *domain.Block, width, height float64) bool {
	if b.AdjustPosition {
		b.Left -= width / 2
		b.Top -= height / 2
		b.Width = width
		b.Height = height
		b.AdjustPosition = false
		return true
	}
	if b.HasResized {
		return false
	}
	if b.Width == width && b.Height == height {
		return false
	}
	b.Width = width
	b.Height = height
	return true
}

// SamePlacement reports whether two block lists have identical geometry,
// compared index by index.
func SamePlacement(a, b []domain.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].Top != b[i].Top || a[i].Left != b[i].Left ||
			a[i].Width != b[i].Width || a[i].Height != b[i].Height ||
			a[i].HasResized != b[i].HasResized {
			return false
		}
	}
	return true
}
