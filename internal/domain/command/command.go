package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// Action names a store operation
type Action string

const (
	ActionNewTerminal   Action = "new_terminal"
	ActionCloseTerminal Action = "close_terminal"
	ActionNextTerminal  Action = "next_terminal"
	ActionPrevTerminal  Action = "prev_terminal"
	ActionToggleView    Action = "toggle_view"
	ActionActivateIndex Action = "activate_index"
	ActionSetLayout     Action = "set_layout"
	ActionRename        Action = "rename"
)

// MaxIndex is the highest numeric activation slot
const MaxIndex = 9

// ErrInvalidCommand is returned for unknown actions or bad arguments
var ErrInvalidCommand = errors.New("invalid command")

// Command is an action plus its argument
type Command struct {
	Action Action           `json:"action"`
	Index  int              `json:"index,omitempty"`
	Layout types.GridLayout `json:"layout,omitempty"`
	Name   string           `json:"name,omitempty"`
	// Target defaults to the active session for close and rename
	Target types.TerminalID `json:"target,omitempty"`
}

// Validate checks the action and its argument
func (c Command) Validate() error {
	switch c.Action {
	case ActionNewTerminal, ActionCloseTerminal, ActionNextTerminal,
		ActionPrevTerminal, ActionToggleView, ActionRename:
		return nil
	case ActionActivateIndex:
		if c.Index < 1 || c.Index > MaxIndex {
			return fmt.Errorf("%w: index %d out of range 1-%d", ErrInvalidCommand, c.Index, MaxIndex)
		}
		return nil
	case ActionSetLayout:
		if !c.Layout.Valid() {
			return fmt.Errorf("%w: layout %q", ErrInvalidCommand, c.Layout)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, c.Action)
}

// String is the keymap file form: "action" or "action:argument"
func (c Command) String() string {
	switch c.Action {
	case ActionActivateIndex:
		return fmt.Sprintf("%s:%d", c.Action, c.Index)
	case ActionSetLayout:
		return fmt.Sprintf("%s:%s", c.Action, c.Layout)
	case ActionRename:
		if c.Name != "" {
			return fmt.Sprintf("%s:%s", c.Action, c.Name)
		}
	}
	return string(c.Action)
}

// ParseCommand parses the keymap file form of a command
func ParseCommand(s string) (Command, error) {
	action, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	cmd := Command{Action: Action(strings.ToLower(strings.TrimSpace(action)))}
	arg = strings.TrimSpace(arg)

	switch cmd.Action {
	case ActionActivateIndex:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, fmt.Errorf("%w: index %q", ErrInvalidCommand, arg)
		}
		cmd.Index = n
	case ActionSetLayout:
		layout, err := types.ParseGridLayout(arg)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		cmd.Layout = layout
	case ActionRename:
		cmd.Name = arg
	default:
		if hasArg {
			return Command{}, fmt.Errorf("%w: %s takes no argument", ErrInvalidCommand, cmd.Action)
		}
	}

	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
