package session

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/persistence"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

var (
	// ErrInvalidName is returned for names that fail validation
	ErrInvalidName = errors.New("invalid terminal name")
	// ErrExitedEarly is returned when the shell dies before the session is recorded
	ErrExitedEarly = errors.New("shell exited during creation")
	// ErrUnknownSession is returned for ids the store does not track
	ErrUnknownSession = errors.New("unknown session")
)

// Registry is the part of terminal.Registry the store drives
type Registry interface {
	Create(ctx context.Context, req terminal.CreateRequest) (types.TerminalID, error)
	Destroy(id types.TerminalID)
	DestroyAll()
	Has(id types.TerminalID) bool
	Info(id types.TerminalID) (terminal.Info, bool)
	Subscribe() *terminal.Subscription
}

// RecordStore persists per-scope view state. Implementations swallow their
// own failures.
type RecordStore interface {
	Load(ctx context.Context, scope types.Scope) (*persistence.Record, bool)
	Save(ctx context.Context, scope types.Scope, rec persistence.Record)
	Delete(ctx context.Context, scope types.Scope)
}

// Session is one terminal as the UI sees it
type Session struct {
	ID               types.TerminalID `json:"id"`
	Name             string           `json:"name"`
	CustomName       string           `json:"customName,omitempty"`
	Scope            types.Scope      `json:"scope"`
	WorkingDirectory string           `json:"workingDirectory"`
	Shell            string           `json:"shell,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	Active           bool             `json:"active"`

	ordinal uint64
}

// DisplayName is the custom name when set, else the default name
func (s Session) DisplayName() string {
	if s.CustomName != "" {
		return s.CustomName
	}
	return s.Name
}

// CreateOptions for CreateSession; zero values take defaults
type CreateOptions struct {
	Cwd   string
	Scope types.Scope
	Name  string
	Shell string
}

// Snapshot is the store state after an operation
type Snapshot struct {
	Revision   uint64           `json:"revision"`
	Scope      types.Scope      `json:"scope"`
	ActiveID   types.TerminalID `json:"activeId,omitempty"`
	ViewMode   types.ViewMode   `json:"viewMode"`
	GridLayout types.GridLayout `json:"gridLayout"`
	// Sessions are the current scope's sessions, oldest first
	Sessions []Session `json:"sessions"`
	// Live counts sessions in every scope
	Live int `json:"live"`
	// Tracked lists the ids of live sessions in every scope
	Tracked []types.TerminalID `json:"-"`
}

// Tracks reports whether id is a live session in any scope
func (s Snapshot) Tracks(id types.TerminalID) bool {
	for _, tid := range s.Tracked {
		if tid == id {
			return true
		}
	}
	return false
}

// Active returns the active session, if any
func (s Snapshot) Active() (Session, bool) {
	for _, sess := range s.Sessions {
		if sess.ID == s.ActiveID {
			return sess, true
		}
	}
	return Session{}, false
}

// Index returns the position of id in Sessions, or -1
func (s Snapshot) Index(id types.TerminalID) int {
	for i, sess := range s.Sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}
