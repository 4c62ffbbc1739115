package domain

// Block is one placed element on the canvas.
//
// Props, Model and SlotName belong to the property editor; the engine copies
// them in snapshots and never reads them.
type Block struct {
	ID             string         `json:"id"`
	ComponentKey   string         `json:"componentKey"`
	Top            float64        `json:"top"`
	Left           float64        `json:"left"`
	Width          float64        `json:"width"`
	Height         float64        `json:"height"`
	ZIndex         int            `json:"zIndex"`
	Focus          bool           `json:"focus"`
	AdjustPosition bool           `json:"adjustPosition"` // recenter on the drop point once measured
	HasResized     bool           `json:"hasResized"`     // user size wins over measured size
	Props          map[string]any `json:"props,omitempty"`
	Model          map[string]any `json:"model,omitempty"`
	SlotName       string         `json:"slotName,omitempty"`
}

// Container is the canvas size.
type Container struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Value is the complete editable state of one canvas.
// Blocks order is only a render/key order; ZIndex decides stacking.
type Value struct {
	Container Container `json:"container"`
	Blocks    []Block   `json:"blocks"`
}
