package session

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/persistence"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/id"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/utils"
)

// Store tracks terminal sessions per project scope, the active session of
// each scope and the tab/grid view state of the current scope.
//
// Every successful operation bumps the revision once and publishes exactly
// one Snapshot. Scope switches are serialized; a second switch waits for
// the first to finish.
type Store struct {
	registry Registry
	records  RecordStore
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	instance string
	home     func() string
	now      func() time.Time

	switchMu sync.Mutex

	mu         sync.Mutex
	sessions   map[types.TerminalID]*Session
	scope      types.Scope
	active     map[types.Scope]types.TerminalID
	viewMode   types.ViewMode
	gridLayout types.GridLayout
	revision   uint64

	// pending is appended under mu and drained in order under pubMu
	queueMu   sync.Mutex
	pending   []Snapshot
	pubMu     sync.Mutex
	snapshots *pubsub.Bus[Snapshot]

	exits *terminal.Subscription
}

// NewStore creates a store in the global scope. It subscribes to registry
// events immediately; Run must be started to consume them.
func NewStore(registry Registry, records RecordStore, logger *zap.Logger, metrics *monitoring.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		registry:   registry,
		records:    records,
		logger:     logger,
		metrics:    metrics,
		instance:   id.NewInstanceID().String(),
		home:       defaultHome,
		now:        time.Now,
		sessions:   make(map[types.TerminalID]*Session),
		scope:      types.GlobalScope,
		active:     make(map[types.Scope]types.TerminalID),
		viewMode:   types.DefaultViewMode,
		gridLayout: types.DefaultGridLayout,
		snapshots:  pubsub.New[Snapshot](64),
		exits:      registry.Subscribe(),
	}
}

func defaultHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}

// Instance identifies this store in the records it writes
func (s *Store) Instance() string {
	return s.instance
}

// Subscribe returns a subscription to snapshots published after each operation
func (s *Store) Subscribe() *pubsub.Subscription[Snapshot] {
	return s.snapshots.Subscribe()
}

// Run evicts sessions whose shell exited until ctx is done.
func (s *Store) Run(ctx context.Context) {
	defer s.exits.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.exits.C():
			if !ok {
				return
			}
			if exited, isExit := ev.(terminal.Exited); isExit {
				if s.evict(exited.ID) {
					s.logger.Info("session ended",
						zap.String("terminal", exited.ID.String()),
						zap.Int("code", exited.Code))
				}
			}
		}
	}
}

// CreateSession spawns a terminal and makes it the active session of its scope.
func (s *Store) CreateSession(ctx context.Context, opts CreateOptions) (Session, error) {
	name := strings.TrimSpace(opts.Name)
	if name != "" {
		if err := utils.ValidateTerminalName(name); err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
	}

	s.mu.Lock()
	scope := opts.Scope
	if scope == "" {
		scope = s.scope
	}
	s.mu.Unlock()

	cwd := opts.Cwd
	if cwd == "" {
		cwd = scope.ProjectPath()
	}
	if cwd == "" {
		cwd = s.home()
	}

	tid, err := s.registry.Create(ctx, terminal.CreateRequest{Cwd: cwd, Shell: opts.Shell})
	if err != nil {
		return Session{}, err
	}

	shell := opts.Shell
	if info, ok := s.registry.Info(tid); ok {
		shell = info.Shell
	}

	ordinal := id.Ordinal(tid.String())
	if name == "" {
		name = fmt.Sprintf("Terminal %d", ordinal)
	}

	s.mu.Lock()
	if !s.registry.Has(tid) {
		s.mu.Unlock()
		return Session{}, &terminal.SpawnError{Shell: shell, Dir: cwd, Err: ErrExitedEarly}
	}
	sess := &Session{
		ID:               tid,
		Name:             name,
		Scope:            scope,
		WorkingDirectory: cwd,
		Shell:            shell,
		CreatedAt:        s.now(),
		ordinal:          ordinal,
	}
	s.sessions[tid] = sess
	s.active[scope] = tid
	out := s.viewOf(sess)
	s.commit()

	s.logger.Info("session created",
		zap.String("terminal", tid.String()),
		zap.String("scope", scope.String()),
		zap.String("cwd", cwd))
	return out, nil
}

// SwitchScope saves the current scope's view state, then restores scope's.
func (s *Store) SwitchScope(ctx context.Context, scope types.Scope) Snapshot {
	if scope == "" {
		scope = types.GlobalScope
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	old := s.scope
	if old == scope {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	rec, hasSessions := s.recordLocked(old)
	s.mu.Unlock()

	if hasSessions {
		s.records.Save(ctx, old, rec)
	}
	loaded, found := s.records.Load(ctx, scope)

	s.mu.Lock()
	s.scope = scope
	s.applyLocked(scope, loaded, found)
	snap := s.commit()

	s.metrics.IncScopeSwitches()
	s.logger.Info("scope switched",
		zap.String("from", old.String()),
		zap.String("scope", scope.String()),
		zap.Bool("restored", found),
		zap.Int("sessions", len(snap.Sessions)))
	return snap
}

// recordLocked builds the record for scope; false when it has no sessions.
func (s *Store) recordLocked(scope types.Scope) (persistence.Record, bool) {
	rec := persistence.Record{
		Version:         persistence.RecordVersion,
		Instance:        s.instance,
		ActiveSessionID: s.active[scope],
		ViewMode:        s.viewMode,
		GridLayout:      s.gridLayout,
		SavedAt:         s.now().UTC(),
	}

	count := 0
	for _, sess := range s.sessions {
		if sess.Scope != scope {
			continue
		}
		count++
		if sess.CustomName != "" {
			if rec.CustomNames == nil {
				rec.CustomNames = make(map[types.TerminalID]string)
			}
			rec.CustomNames[sess.ID] = sess.CustomName
		}
	}
	return rec, count > 0
}

// applyLocked restores view state for scope. Ids from a record written by
// another store instance are ignored; they name terminals of a dead process.
func (s *Store) applyLocked(scope types.Scope, rec *persistence.Record, found bool) {
	s.viewMode = types.DefaultViewMode
	s.gridLayout = types.DefaultGridLayout

	var preferred types.TerminalID
	if found && rec != nil {
		s.viewMode = rec.ViewMode
		s.gridLayout = rec.GridLayout

		if rec.FromInstance(s.instance) {
			for tid, name := range rec.CustomNames {
				if sess, ok := s.sessions[tid]; ok && sess.Scope == scope {
					sess.CustomName = name
				}
			}
			preferred = rec.ActiveSessionID
		} else {
			s.logger.Debug("ignoring ids from another instance",
				zap.String("scope", scope.String()),
				zap.String("instance", rec.Instance))
		}
	}

	if sess, ok := s.sessions[preferred]; ok && sess.Scope == scope {
		s.active[scope] = preferred
		return
	}
	if oldest, ok := s.pickLocked(scope, false); ok {
		s.active[scope] = oldest
		return
	}
	delete(s.active, scope)
}

// ForgetScope deletes the saved view state of scope. Live sessions are
// untouched, so the next switch away from scope saves a fresh record when
// it still has sessions.
func (s *Store) ForgetScope(ctx context.Context, scope types.Scope) {
	if scope == "" {
		scope = types.GlobalScope
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.records.Delete(ctx, scope)
	s.logger.Info("scope record forgotten", zap.String("scope", scope.String()))
}

// SetActiveSession makes id the active session of its scope
func (s *Store) SetActiveSession(tid types.TerminalID) bool {
	s.mu.Lock()
	sess, ok := s.sessions[tid]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.active[sess.Scope] = tid
	s.commit()
	return true
}

// RenameSession sets a custom name; an empty or blank name restores the
// default. The name is trimmed before validation.
func (s *Store) RenameSession(tid types.TerminalID, name string) error {
	name = strings.TrimSpace(name)
	if name != "" {
		if err := utils.ValidateTerminalName(name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
	}

	s.mu.Lock()
	sess, ok := s.sessions[tid]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, tid)
	}
	sess.CustomName = name
	s.commit()
	return nil
}

// CloseSession destroys a session. The most recently created remaining
// session of the same scope becomes active. Closing twice returns false.
func (s *Store) CloseSession(tid types.TerminalID) bool {
	if !s.removeAndCommit(tid) {
		return false
	}
	s.registry.Destroy(tid)
	s.logger.Info("session closed", zap.String("terminal", tid.String()))
	return true
}

// evict handles a shell that exited on its own
func (s *Store) evict(tid types.TerminalID) bool {
	if !s.removeAndCommit(tid) {
		return false
	}
	s.registry.Destroy(tid)
	return true
}

func (s *Store) removeAndCommit(tid types.TerminalID) bool {
	s.mu.Lock()
	sess, ok := s.sessions[tid]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.sessions, tid)

	if s.active[sess.Scope] == tid {
		if next, ok := s.pickLocked(sess.Scope, true); ok {
			s.active[sess.Scope] = next
		} else {
			delete(s.active, sess.Scope)
		}
	}
	s.commit()
	return true
}

// SetViewMode switches between tabs and grid
func (s *Store) SetViewMode(mode types.ViewMode) error {
	mode, err := types.ParseViewMode(string(mode))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.viewMode = mode
	s.commit()
	return nil
}

// ToggleViewMode flips tabs/grid and returns the new mode
func (s *Store) ToggleViewMode() types.ViewMode {
	s.mu.Lock()
	s.viewMode = s.viewMode.Toggle()
	mode := s.viewMode
	s.commit()
	return mode
}

// SetGridLayout changes the grid arrangement
func (s *Store) SetGridLayout(layout types.GridLayout) error {
	layout, err := types.ParseGridLayout(string(layout))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.gridLayout = layout
	s.commit()
	return nil
}

// VisibleSessions returns the current scope's sessions, oldest first
func (s *Store) VisibleSessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

// ActivateIndex activates the n-th (1-based) visible session
func (s *Store) ActivateIndex(n int) (types.TerminalID, bool) {
	s.mu.Lock()
	visible := s.orderedLocked(s.scope)
	if n < 1 || n > len(visible) {
		s.mu.Unlock()
		return "", false
	}
	tid := visible[n-1].ID
	s.active[s.scope] = tid
	s.commit()
	return tid, true
}

// CycleActive moves the active session by delta among visible sessions,
// wrapping at either end.
func (s *Store) CycleActive(delta int) (types.TerminalID, bool) {
	s.mu.Lock()
	visible := s.orderedLocked(s.scope)
	if len(visible) == 0 {
		s.mu.Unlock()
		return "", false
	}

	cur := 0
	for i, sess := range visible {
		if sess.ID == s.active[s.scope] {
			cur = i
			break
		}
	}
	next := ((cur+delta)%len(visible) + len(visible)) % len(visible)
	tid := visible[next].ID
	s.active[s.scope] = tid
	s.commit()
	return tid, true
}

// Session returns a copy of one session
func (s *Store) Session(tid types.TerminalID) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tid]
	if !ok {
		return Session{}, false
	}
	return s.viewOf(sess), true
}

// Snapshot returns the current state without bumping the revision
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Shutdown saves the current scope and destroys every terminal
func (s *Store) Shutdown(ctx context.Context) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	scope := s.scope
	rec, hasSessions := s.recordLocked(scope)
	s.mu.Unlock()

	if hasSessions {
		s.records.Save(ctx, scope, rec)
	}
	s.registry.DestroyAll()

	s.mu.Lock()
	s.sessions = make(map[types.TerminalID]*Session)
	s.active = make(map[types.Scope]types.TerminalID)
	s.commit()

	s.logger.Info("session store shut down", zap.String("scope", scope.String()))
}

// commit bumps the revision and publishes. Must be called with mu held;
// it releases mu. It returns once snap has been delivered.
func (s *Store) commit() Snapshot {
	s.revision++
	snap := s.snapshotLocked()

	s.queueMu.Lock()
	s.pending = append(s.pending, snap)
	s.queueMu.Unlock()
	s.mu.Unlock()

	s.flush()
	return snap
}

// flush publishes queued snapshots. Subscribers may call back into the
// store while a publish blocks on them.
func (s *Store) flush() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	for {
		s.queueMu.Lock()
		if len(s.pending) == 0 {
			s.queueMu.Unlock()
			return
		}
		snap := s.pending[0]
		s.pending[0] = Snapshot{}
		s.pending = s.pending[1:]
		s.queueMu.Unlock()

		s.snapshots.Publish(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Revision:   s.revision,
		Scope:      s.scope,
		ActiveID:   s.active[s.scope],
		ViewMode:   s.viewMode,
		GridLayout: s.gridLayout,
		Sessions:   s.visibleLocked(),
		Live:       len(s.sessions),
		Tracked:    s.trackedLocked(),
	}
}

func (s *Store) trackedLocked() []types.TerminalID {
	ids := make([]types.TerminalID, 0, len(s.sessions))
	for tid := range s.sessions {
		ids = append(ids, tid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) visibleLocked() []Session {
	ordered := s.orderedLocked(s.scope)
	out := make([]Session, len(ordered))
	for i, sess := range ordered {
		out[i] = s.viewOf(sess)
	}
	return out
}

// orderedLocked returns scope's sessions by creation time, ties by ordinal
func (s *Store) orderedLocked(scope types.Scope) []*Session {
	var out []*Session
	for _, sess := range s.sessions {
		if sess.Scope == scope {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ordinal < out[j].ordinal
	})
	return out
}

// pickLocked returns the newest (or oldest) session of scope
func (s *Store) pickLocked(scope types.Scope, newest bool) (types.TerminalID, bool) {
	ordered := s.orderedLocked(scope)
	if len(ordered) == 0 {
		return "", false
	}
	if newest {
		return ordered[len(ordered)-1].ID, true
	}
	return ordered[0].ID, true
}

func (s *Store) viewOf(sess *Session) Session {
	out := *sess
	out.Active = s.active[sess.Scope] == sess.ID
	return out
}
