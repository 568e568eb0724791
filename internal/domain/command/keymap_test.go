package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

func lookup(t *testing.T, k *Keymap, chord string) (Command, bool) {
	t.Helper()
	c, err := ParseChord(chord)
	require.NoError(t, err)
	return k.Lookup(c)
}

func TestDefaultKeymap(t *testing.T) {
	k := DefaultKeymap()

	tests := []struct {
		chord string
		want  Command
	}{
		{"Ctrl+Shift+T", Command{Action: ActionNewTerminal}},
		{"ctrl+shift+w", Command{Action: ActionCloseTerminal}},
		{"Ctrl+Tab", Command{Action: ActionNextTerminal}},
		{"Ctrl+Shift+Tab", Command{Action: ActionPrevTerminal}},
		{"Ctrl+Shift+G", Command{Action: ActionToggleView}},
		{"Ctrl+1", Command{Action: ActionActivateIndex, Index: 1}},
		{"Ctrl+9", Command{Action: ActionActivateIndex, Index: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.chord, func(t *testing.T) {
			got, ok := lookup(t, k, tt.chord)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 14, k.Len())
	_, ok := lookup(t, k, "Ctrl+0")
	assert.False(t, ok)
}

func TestBindRejectsInvalid(t *testing.T) {
	k := NewKeymap()
	assert.ErrorIs(t, k.Bind("Ctrl+", Command{Action: ActionToggleView}), ErrInvalidChord)
	assert.ErrorIs(t, k.Bind("Ctrl+K", Command{Action: "fly"}), ErrInvalidCommand)
	assert.Zero(t, k.Len())
}

const yamlKeymap = `
bindings:
  Ctrl+Alt+2: set_layout:2x2
  Ctrl+Shift+G: ""
  ctrl+shift+t: rename:scratch
`

const tomlKeymap = `
[bindings]
"Ctrl+Alt+2" = "set_layout:2x2"
"Ctrl+Shift+G" = ""
"ctrl+shift+t" = "rename:scratch"
`

func TestParseKeymapOverlaysDefaults(t *testing.T) {
	for _, tt := range []struct {
		format string
		data   string
	}{
		{"yaml", yamlKeymap},
		{".yml", yamlKeymap},
		{".TOML", tomlKeymap},
	} {
		t.Run(tt.format, func(t *testing.T) {
			k, err := ParseKeymap([]byte(tt.data), tt.format)
			require.NoError(t, err)

			got, ok := lookup(t, k, "Ctrl+Alt+2")
			require.True(t, ok)
			assert.Equal(t, Command{Action: ActionSetLayout, Layout: types.Grid2x2}, got)

			_, ok = lookup(t, k, "Ctrl+Shift+G")
			assert.False(t, ok, "empty command unbinds")

			got, _ = lookup(t, k, "Ctrl+Shift+T")
			assert.Equal(t, Command{Action: ActionRename, Name: "scratch"}, got)

			got, ok = lookup(t, k, "Ctrl+Tab")
			require.True(t, ok, "defaults survive")
			assert.Equal(t, ActionNextTerminal, got.Action)
		})
	}
}

func TestParseKeymapErrors(t *testing.T) {
	_, err := ParseKeymap([]byte(`{}`), "json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseKeymap([]byte("bindings:\n  Ctrl+K: explode\n"), "yaml")
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = ParseKeymap([]byte("bindings:\n  Hyper+K: new_terminal\n"), "yaml")
	assert.ErrorIs(t, err, ErrInvalidChord)

	_, err = ParseKeymap([]byte("[bindings\n"), "toml")
	assert.Error(t, err)
}

func TestLoadKeymap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keymap.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlKeymap), 0o600))

	k, err := LoadKeymap(path)
	require.NoError(t, err)
	_, ok := lookup(t, k, "Ctrl+Alt+2")
	assert.True(t, ok)

	_, err = LoadKeymap(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBindingsSorted(t *testing.T) {
	k := NewKeymap()
	require.NoError(t, k.Bind("Ctrl+B", Command{Action: ActionToggleView}))
	require.NoError(t, k.Bind("Ctrl+A", Command{Action: ActionNewTerminal}))

	bindings := k.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "Ctrl+A", bindings[0].Chord)
	assert.Equal(t, "Ctrl+B", bindings[1].Chord)
}
