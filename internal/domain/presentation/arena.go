package presentation

import (
	"sort"
	"sync"

	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// State is the mount state of a widget
type State int

const (
	Detached State = iota
	Mounted
)

func (s State) String() string {
	if s == Mounted {
		return "mounted"
	}
	return "detached"
}

type handle struct {
	widget Widget
	state  State
	cell   Cell
	opened bool
	// tracked is set once the store has reported the terminal
	tracked bool
}

// Arena owns one widget per terminal id
type Arena struct {
	factory Factory
	input   func(types.TerminalID, []byte)

	mu      sync.Mutex
	handles map[types.TerminalID]*handle
}

// NewArena creates an arena. Keystrokes typed into a widget go to input.
func NewArena(factory Factory, input func(types.TerminalID, []byte)) *Arena {
	return &Arena{
		factory: factory,
		input:   input,
		handles: make(map[types.TerminalID]*handle),
	}
}

// Ensure returns the widget for id, creating it detached if needed
func (a *Arena) Ensure(id types.TerminalID) Widget {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ensureLocked(id).widget
}

func (a *Arena) ensureLocked(id types.TerminalID) *handle {
	if h, ok := a.handles[id]; ok {
		return h
	}
	h := &handle{
		widget: a.factory(id, func(data []byte) { a.input(id, data) }),
		state:  Detached,
	}
	a.handles[id] = h
	return h
}

// Widget returns the widget for id without creating one
func (a *Arena) Widget(id types.TerminalID) (Widget, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.handles[id]
	if !ok {
		return nil, false
	}
	return h.widget, true
}

// Mount shows id in cell. The first mount opens the widget; later ones
// attach it. Reports whether the widget moved, resized or was mounted.
func (a *Arena) Mount(id types.TerminalID, cell Cell) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.ensureLocked(id)
	if h.state == Mounted && h.cell == cell {
		return false
	}

	if !h.opened {
		h.widget.Open(cell)
		h.opened = true
	} else {
		h.widget.Attach(cell)
	}
	h.state = Mounted
	h.cell = cell
	return true
}

// Detach takes id off screen. The widget and its scrollback survive.
func (a *Arena) Detach(id types.TerminalID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.handles[id]
	if !ok || h.state == Detached {
		return
	}
	h.widget.Detach()
	h.state = Detached
}

// Dispose destroys the widget for id
func (a *Arena) Dispose(id types.TerminalID) bool {
	a.mu.Lock()
	h, ok := a.handles[id]
	delete(a.handles, id)
	a.mu.Unlock()

	if !ok {
		return false
	}
	if h.state == Mounted {
		h.widget.Detach()
	}
	h.widget.Dispose()
	return true
}

// State returns the mount state of id
func (a *Arena) State(id types.TerminalID) (State, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.handles[id]
	if !ok {
		return Detached, false
	}
	return h.state, true
}

// Cell returns the cell id is mounted in
func (a *Arena) Cell(id types.TerminalID) (Cell, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.handles[id]
	if !ok || h.state != Mounted {
		return Cell{}, false
	}
	return h.cell, true
}

// Mounted lists mounted ids in cell order
func (a *Arena) Mounted() []types.TerminalID {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []types.TerminalID
	for id, h := range a.handles {
		if h.state == Mounted {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return a.handles[out[i]].cell.Index < a.handles[out[j]].cell.Index
	})
	return out
}

// IDs lists every id with a widget
func (a *Arena) IDs() []types.TerminalID {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]types.TerminalID, 0, len(a.handles))
	for id := range a.handles {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of widgets
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.handles)
}

// prune disposes widgets the store no longer knows. A widget the store has
// never reported survives while its terminal is alive in the registry, so
// output that arrives before the store records a new session is kept.
func (a *Arena) prune(known func(types.TerminalID) bool, alive func(types.TerminalID) bool) []types.TerminalID {
	a.mu.Lock()
	var doomed []*handle
	var ids []types.TerminalID
	for id, h := range a.handles {
		if known(id) {
			h.tracked = true
			continue
		}
		if h.tracked || !alive(id) {
			doomed = append(doomed, h)
			ids = append(ids, id)
			delete(a.handles, id)
		}
	}
	a.mu.Unlock()

	for _, h := range doomed {
		if h.state == Mounted {
			h.widget.Detach()
		}
		h.widget.Dispose()
	}
	return ids
}
