package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/domain"
	"visualeditor/internal/plugins"
)

func TestRegisterDefaults(t *testing.T) {
	reg := domain.NewComponentRegistry()
	plugins.RegisterDefaults(reg)

	var keys []string
	for _, c := range reg.List() {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"text", "button", "input", "select", "number-range", "image"}, keys)

	button, ok := reg.Get("button")
	require.True(t, ok)
	assert.True(t, button.Resize.Width)
	assert.True(t, button.Resize.Height)

	input, _ := reg.Get("input")
	assert.True(t, input.Resize.Width)
	assert.False(t, input.Resize.Height)
}

func TestDefaults_TablePropsShowAColumn(t *testing.T) {
	for _, c := range plugins.Defaults() {
		assert.Positive(t, c.DefaultSize.Width, c.Key)
		assert.Positive(t, c.DefaultSize.Height, c.Key)
		for name, p := range c.Props {
			if p.Kind != domain.PropKindTable {
				continue
			}
			found := false
			for _, col := range p.Columns {
				found = found || col.Field == p.ShowField
			}
			assert.True(t, found, "%s.%s shows a missing column", c.Key, name)
		}
	}
}

func TestRegisterDefaults_HostOverride(t *testing.T) {
	reg := domain.NewComponentRegistry()
	plugins.RegisterDefaults(reg)
	reg.Register(domain.Component{Key: "text", Name: "Rich text"})

	c, _ := reg.Get("text")
	assert.Equal(t, "Rich text", c.Name)
	list := reg.List()
	assert.Equal(t, "text", list[len(list)-1].Key)
}
