package history

import "strings"

// KeyEvent is a key press as reported by the host.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Meta  bool   `json:"meta"` // treated as ctrl, so cmd+z undoes on macOS
	// TargetIsBody is false while an input or other focusable element has
	// the keyboard; shortcuts are not dispatched then.
	TargetIsBody bool `json:"targetIsBody"`
}

var keyAliases = map[string]string{
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"del":        "delete",
	"esc":        "escape",
	" ":          "space",
}

// Chord composes the canonical chord for ev: modifiers in ctrl, shift, alt
// order followed by the lowercase key name, joined by "+".
func Chord(ev KeyEvent) string {
	key := strings.ToLower(ev.Key)
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	parts := make([]string, 0, 4)
	if ev.Ctrl || ev.Meta {
		parts = append(parts, "ctrl")
	}
	if ev.Shift {
		parts = append(parts, "shift")
	}
	if ev.Alt {
		parts = append(parts, "alt")
	}
	parts = append(parts, key)
	return strings.Join(parts, "+")
}

// Dispatch invokes the first command, in registration order, bound to the
// chord of ev. It reports whether a command matched, in which case the host
// should prevent the default action and stop propagation. Dispatch does
// nothing before Init or when the key was not aimed at the document body.
func (m *Manager) Dispatch(ev KeyEvent) (bool, error) {
	if !m.initialized || !ev.TargetIsBody || ev.Key == "" {
		return false, nil
	}
	chord := Chord(ev)
	for _, c := range m.commands {
		for _, k := range c.Keyboard {
			if k == chord {
				return true, m.Invoke(c.Name)
			}
		}
	}
	return false, nil
}
