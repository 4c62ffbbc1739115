package gesture

import "strings"

// Direction is a resize anchor on one axis.
type Direction string

const (
	// Start grows the box towards the origin; the far edge stays fixed.
	Start Direction = "start"
	// Center leaves the axis untouched.
	Center Direction = "center"
	// End grows the box away from the origin.
	End Direction = "end"
)

// Anchor picks the resize handle: one direction per axis.
type Anchor struct {
	Horizontal Direction `json:"horizontal"`
	Vertical   Direction `json:"vertical"`
}

var anchorNames = map[string]Anchor{
	"top":          {Horizontal: Center, Vertical: Start},
	"bottom":       {Horizontal: Center, Vertical: End},
	"left":         {Horizontal: Start, Vertical: Center},
	"right":        {Horizontal: End, Vertical: Center},
	"top-left":     {Horizontal: Start, Vertical: Start},
	"top-right":    {Horizontal: End, Vertical: Start},
	"bottom-left":  {Horizontal: Start, Vertical: End},
	"bottom-right": {Horizontal: End, Vertical: End},
	"none":         {Horizontal: Center, Vertical: Center},
}

// AnchorFromName maps a handle name such as "top-left" or "right" to an
// Anchor. Underscores are accepted in place of dashes.
func AnchorFromName(name string) (Anchor, bool) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	a, ok := anchorNames[name]
	return a, ok
}

func (d Direction) valid() bool {
	return d == Start || d == Center || d == End
}
