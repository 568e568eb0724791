package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

var (
	// ErrUnbound is returned for chords with no binding
	ErrUnbound = errors.New("chord not bound")
	// ErrNoActiveSession is returned when a command needs a session and the scope has none
	ErrNoActiveSession = errors.New("no active session")
	// ErrNotFound is returned when the targeted session does not exist
	ErrNotFound = errors.New("session not found")
)

// Store is the part of session.Store the router drives
type Store interface {
	CreateSession(ctx context.Context, opts session.CreateOptions) (session.Session, error)
	CloseSession(id types.TerminalID) bool
	RenameSession(id types.TerminalID, name string) error
	CycleActive(delta int) (types.TerminalID, bool)
	ActivateIndex(n int) (types.TerminalID, bool)
	ToggleViewMode() types.ViewMode
	SetGridLayout(layout types.GridLayout) error
	Snapshot() session.Snapshot
}

// Result describes what a dispatched command did
type Result struct {
	Action   Action           `json:"action"`
	Terminal types.TerminalID `json:"terminal,omitempty"`
	ViewMode types.ViewMode   `json:"viewMode,omitempty"`
	Layout   types.GridLayout `json:"layout,omitempty"`
}

// Router translates chords and commands into store operations
type Router struct {
	store  Store
	logger *zap.Logger

	mu     sync.RWMutex
	keymap *Keymap
}

// NewRouter creates a router. A nil keymap uses DefaultKeymap.
func NewRouter(store Store, keymap *Keymap, logger *zap.Logger) *Router {
	if keymap == nil {
		keymap = DefaultKeymap()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{store: store, keymap: keymap, logger: logger}
}

// Keymap returns the active keymap
func (r *Router) Keymap() *Keymap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keymap
}

// SetKeymap swaps the active keymap
func (r *Router) SetKeymap(k *Keymap) {
	if k == nil {
		return
	}
	r.mu.Lock()
	r.keymap = k
	r.mu.Unlock()
	r.logger.Info("keymap loaded", zap.Int("bindings", k.Len()))
}

// HandleChord parses chord, looks up its command and dispatches it
func (r *Router) HandleChord(ctx context.Context, chord string) (Result, error) {
	c, err := ParseChord(chord)
	if err != nil {
		return Result{}, err
	}
	cmd, ok := r.Keymap().Lookup(c)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnbound, c)
	}
	return r.Dispatch(ctx, cmd)
}

// Dispatch runs cmd against the store
func (r *Router) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{Action: cmd.Action}

	switch cmd.Action {
	case ActionNewTerminal:
		sess, err := r.store.CreateSession(ctx, session.CreateOptions{Name: cmd.Name})
		if err != nil {
			return res, err
		}
		res.Terminal = sess.ID

	case ActionCloseTerminal:
		target, err := r.target(cmd)
		if err != nil {
			return res, err
		}
		if !r.store.CloseSession(target) {
			return res, fmt.Errorf("%w: %s", ErrNotFound, target)
		}
		res.Terminal = target

	case ActionRename:
		target, err := r.target(cmd)
		if err != nil {
			return res, err
		}
		if err := r.store.RenameSession(target, cmd.Name); err != nil {
			if errors.Is(err, session.ErrUnknownSession) {
				return res, fmt.Errorf("%w: %s", ErrNotFound, target)
			}
			return res, err
		}
		res.Terminal = target

	case ActionNextTerminal, ActionPrevTerminal:
		delta := 1
		if cmd.Action == ActionPrevTerminal {
			delta = -1
		}
		// no sessions is not an error
		res.Terminal, _ = r.store.CycleActive(delta)

	case ActionActivateIndex:
		tid, ok := r.store.ActivateIndex(cmd.Index)
		if !ok {
			return res, fmt.Errorf("%w: no session at index %d", ErrNotFound, cmd.Index)
		}
		res.Terminal = tid

	case ActionToggleView:
		res.ViewMode = r.store.ToggleViewMode()

	case ActionSetLayout:
		if err := r.store.SetGridLayout(cmd.Layout); err != nil {
			return res, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		res.Layout = cmd.Layout
	}

	r.logger.Debug("command dispatched",
		zap.String("action", string(cmd.Action)),
		zap.String("terminal", res.Terminal.String()))
	return res, nil
}

func (r *Router) target(cmd Command) (types.TerminalID, error) {
	if cmd.Target != "" {
		return cmd.Target, nil
	}
	active := r.store.Snapshot().ActiveID
	if active == "" {
		return "", ErrNoActiveSession
	}
	return active, nil
}
