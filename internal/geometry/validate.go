package geometry

import (
	"bytes"
	"encoding/json"
	"math"

	"visualeditor/internal/domain"
	"visualeditor/internal/errs"
)

// ParseValue decodes and validates an imported Value. Blocks with a missing
// or duplicate ID get a fresh one from newID. Any structural problem is
// reported as errs.ErrCodeMalformedValue and no partial Value is returned.
func ParseValue(data []byte, newID func() string) (domain.Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return domain.Value{}, errs.New(errs.ErrCodeMalformedValue, "empty document")
	}

	var raw struct {
		Container *domain.Container `json:"container"`
		Blocks    []domain.Block    `json:"blocks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Value{}, errs.Wrap(errs.ErrCodeMalformedValue, err, "parse value")
	}
	if raw.Container == nil {
		return domain.Value{}, errs.New(errs.ErrCodeMalformedValue, "missing container")
	}
	v := domain.Value{Container: *raw.Container, Blocks: raw.Blocks}
	if v.Blocks == nil {
		v.Blocks = []domain.Block{}
	}
	if err := Validate(v); err != nil {
		return domain.Value{}, err
	}
	AssignIDs(v.Blocks, newID)
	return v, nil
}

// Validate checks the structure of v without modifying it.
func Validate(v domain.Value) error {
	if !nonNegative(v.Container.Width) || !nonNegative(v.Container.Height) {
		return errs.New(errs.ErrCodeMalformedValue, "container size must be finite and non-negative")
	}
	for i := range v.Blocks {
		b := &v.Blocks[i]
		if b.ComponentKey == "" {
			return errs.New(errs.ErrCodeMalformedValue, "block %d: missing componentKey", i)
		}
		if !finite(b.Top) || !finite(b.Left) {
			return errs.New(errs.ErrCodeMalformedValue, "block %d: position must be finite", i)
		}
		if !nonNegative(b.Width) || !nonNegative(b.Height) {
			return errs.New(errs.ErrCodeMalformedValue, "block %d: size must be finite and non-negative", i)
		}
		if b.ZIndex < 0 {
			return errs.New(errs.ErrCodeMalformedValue, "block %d: zIndex must be non-negative", i)
		}
	}
	return nil
}

// AssignIDs gives every block with a missing or repeated ID a fresh one.
func AssignIDs(blocks []domain.Block, newID func() string) {
	seen := make(map[string]bool, len(blocks))
	for i := range blocks {
		if blocks[i].ID == "" || seen[blocks[i].ID] {
			blocks[i].ID = newID()
		}
		seen[blocks[i].ID] = true
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonNegative(f float64) bool {
	return finite(f) && f >= 0
}
