package taskwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_RoundTrip(t *testing.T) {
	page, err := RenderBootstrap(&Bootstrap{
		Version: 42,
		State: BootstrapState{Lists: []*Entity{
			{ID: "L1", Name: "[MIUI_Notes]Work", LastModified: 7},
		}},
	})
	require.NoError(t, err)

	b, err := ParseBootstrap(string(page))
	require.NoError(t, err)
	assert.Equal(t, int64(42), b.Version)
	require.Len(t, b.State.Lists, 1)
	assert.Equal(t, "L1", b.State.Lists[0].ID)
	assert.Equal(t, int64(7), b.State.Lists[0].LastModified)
}

func TestParseBootstrap_Literal(t *testing.T) {
	page := `<html><script>x(function(){_setup({"v":3,"t":{"lists":[{"id":"a","name":"n","last_modified":1}]}})}</script></html>`
	b, err := ParseBootstrap(page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.Version)
	assert.Equal(t, "a", b.State.Lists[0].ID)
}

func TestParseBootstrap_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"empty", ""},
		{"no begin", `{"v":1})}</script>`},
		{"no end", `_setup({"v":1})`},
		{"end before begin", `)}</script>_setup(`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBootstrap(tt.page)
			assert.ErrorIs(t, err, ErrBadBootstrap)
		})
	}

	_, err := ParseBootstrap(`_setup({not json})}</script>`)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadBootstrap)
}
