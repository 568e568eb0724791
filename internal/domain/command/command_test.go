package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"new_terminal", Command{Action: ActionNewTerminal}},
		{" Close_Terminal ", Command{Action: ActionCloseTerminal}},
		{"activate_index:3", Command{Action: ActionActivateIndex, Index: 3}},
		{"set_layout:3×2", Command{Action: ActionSetLayout, Layout: types.Grid3x2}},
		{"rename:build", Command{Action: ActionRename, Name: "build"}},
		{"rename", Command{Action: ActionRename}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, in := range []string{"", "explode", "activate_index", "activate_index:0", "activate_index:10", "set_layout:5x5", "toggle_view:now"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCommand(in)
			assert.ErrorIs(t, err, ErrInvalidCommand)
		})
	}
}

func TestCommandStringRoundTrips(t *testing.T) {
	for _, cmd := range []Command{
		{Action: ActionToggleView},
		{Action: ActionActivateIndex, Index: 9},
		{Action: ActionSetLayout, Layout: types.Grid1x4},
		{Action: ActionRename, Name: "logs"},
	} {
		got, err := ParseCommand(cmd.String())
		require.NoError(t, err)
		assert.Equal(t, cmd, got)
	}
}
