package domain

import "sync"

// PropKind is the editor widget used for a component property.
type PropKind string

const (
	PropKindText   PropKind = "text"
	PropKindSelect PropKind = "select"
	PropKindColor  PropKind = "color"
	PropKindTable  PropKind = "table"
)

// Option is one entry of a select property.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Column is one column of a table property.
type Column struct {
	Name  string `json:"name"`
	Field string `json:"field"`
}

// PropDef describes one editable property of a component.
// Options is used by select props, ShowField and Columns by table props.
type PropDef struct {
	Name      string   `json:"name"`
	Kind      PropKind `json:"kind"`
	Options   []Option `json:"options,omitempty"`
	ShowField string   `json:"showField,omitempty"`
	Columns   []Column `json:"columns,omitempty"`
}

// ResizeCapability says which axes a component may be resized on.
type ResizeCapability struct {
	Width  bool `json:"width"`
	Height bool `json:"height"`
}

// Size is a width/height pair in canvas pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Component is a palette entry. Blocks reference it by Key.
// Model maps a binding slot to its label in the property panel.
// DefaultSize stands in for a rendered measurement when no renderer is
// attached (agent-driven drops).
type Component struct {
	Key         string             `json:"key"`
	Name        string             `json:"name"`
	Resize      ResizeCapability   `json:"resize"`
	Props       map[string]PropDef `json:"props,omitempty"`
	Model       map[string]string  `json:"model,omitempty"`
	DefaultSize Size               `json:"defaultSize"`
}

// ─────────────────────────────────────────────────────────────
// ComponentRegistry
// ─────────────────────────────────────────────────────────────

// ComponentRegistry holds the palette. Registering an existing key replaces
// the previous definition and moves it to the end of the palette order.
type ComponentRegistry struct {
	mu    sync.RWMutex
	byKey map[string]Component
	order []string
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{byKey: make(map[string]Component)}
}

// Register adds or replaces a component.
func (r *ComponentRegistry) Register(c Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[c.Key]; exists {
		for i, k := range r.order {
			if k == c.Key {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.byKey[c.Key] = c
	r.order = append(r.order, c.Key)
}

// Get returns the component registered under key.
func (r *ComponentRegistry) Get(key string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byKey[key]
	return c, ok
}

// List returns the palette in registration order.
func (r *ComponentRegistry) List() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}
