// Package plugins provides the built-in component palette.
package plugins

import "visualeditor/internal/domain"

// ─────────────────────────────────────────────────────────────
// Prop helpers
// ─────────────────────────────────────────────────────────────

func textProp(name string) domain.PropDef {
	return domain.PropDef{Name: name, Kind: domain.PropKindText}
}

func colorProp(name string) domain.PropDef {
	return domain.PropDef{Name: name, Kind: domain.PropKindColor}
}

func selectProp(name string, options ...domain.Option) domain.PropDef {
	return domain.PropDef{Name: name, Kind: domain.PropKindSelect, Options: options}
}

// tableProp describes a list of rows edited as a table. showField must be
// the Field of one of the columns; it is the value shown in the summary.
func tableProp(name, showField string, columns ...domain.Column) domain.PropDef {
	return domain.PropDef{Name: name, Kind: domain.PropKindTable, ShowField: showField, Columns: columns}
}

// ─────────────────────────────────────────────────────────────
// Default palette
// ─────────────────────────────────────────────────────────────

// Defaults returns the built-in components in palette order.
func Defaults() []domain.Component {
	return []domain.Component{
		{
			Key:  "text",
			Name: "Text",
			Props: map[string]domain.PropDef{
				"text":  textProp("Text"),
				"color": colorProp("Color"),
				"size": selectProp("Font size",
					domain.Option{Label: "14px", Value: "14px"},
					domain.Option{Label: "18px", Value: "18px"},
					domain.Option{Label: "24px", Value: "24px"},
				),
			},
			DefaultSize: domain.Size{Width: 64, Height: 22},
		},
		{
			Key:    "button",
			Name:   "Button",
			Resize: domain.ResizeCapability{Width: true, Height: true},
			Props: map[string]domain.PropDef{
				"label": textProp("Label"),
				"type": selectProp("Type",
					domain.Option{Label: "Default", Value: "default"},
					domain.Option{Label: "Primary", Value: "primary"},
					domain.Option{Label: "Ghost", Value: "ghost"},
					domain.Option{Label: "Dashed", Value: "dashed"},
					domain.Option{Label: "Link", Value: "link"},
					domain.Option{Label: "Text", Value: "text"},
				),
				"size": selectProp("Size",
					domain.Option{Label: "Large", Value: "large"},
					domain.Option{Label: "Middle", Value: "middle"},
					domain.Option{Label: "Small", Value: "small"},
				),
			},
			DefaultSize: domain.Size{Width: 88, Height: 32},
		},
		{
			Key:         "input",
			Name:        "Input",
			Resize:      domain.ResizeCapability{Width: true},
			Model:       map[string]string{"default": "Bound field"},
			DefaultSize: domain.Size{Width: 180, Height: 32},
		},
		{
			Key:    "select",
			Name:   "Select",
			Resize: domain.ResizeCapability{Width: true},
			Props: map[string]domain.PropDef{
				"options": tableProp("Options", "label",
					domain.Column{Name: "Label", Field: "label"},
					domain.Column{Name: "Value", Field: "val"},
					domain.Column{Name: "Comments", Field: "comments"},
				),
			},
			Model:       map[string]string{"default": "Bound field"},
			DefaultSize: domain.Size{Width: 120, Height: 32},
		},
		{
			Key:    "number-range",
			Name:   "Number range",
			Resize: domain.ResizeCapability{Width: true},
			Model: map[string]string{
				"start": "Start field",
				"end":   "End field",
			},
			DefaultSize: domain.Size{Width: 200, Height: 32},
		},
		{
			Key:    "image",
			Name:   "Image",
			Resize: domain.ResizeCapability{Width: true, Height: true},
			Props: map[string]domain.PropDef{
				"url": textProp("URL"),
			},
			DefaultSize: domain.Size{Width: 100, Height: 100},
		},
	}
}

// RegisterDefaults installs the built-in palette into reg. Components
// registered afterwards with the same key replace the defaults.
func RegisterDefaults(reg *domain.ComponentRegistry) {
	for _, c := range Defaults() {
		reg.Register(c)
	}
}
