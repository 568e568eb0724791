package terminal

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/id"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

const (
	// MaxSessions is the hard cap on live terminals
	MaxSessions = 9

	DefaultCols = 80
	DefaultRows = 24

	readBufferSize = 4096
	// drainGrace bounds how long Exited waits for the reader after the shell
	// is gone; background jobs can hold the pty open.
	drainGrace = 500 * time.Millisecond
)

// Config configures a Registry
type Config struct {
	Spawner     Spawner
	Shells      *ShellProbe
	MaxSessions int
	Cols        int
	Rows        int
	Logger      *zap.Logger
	Metrics     *monitoring.Metrics
}

// CreateRequest describes a new terminal. Zero values take defaults.
type CreateRequest struct {
	Cwd   string
	Shell string
	Cols  int
	Rows  int
	Env   map[string]string
}

// Info is the public view of a live pty session
type Info struct {
	ID        types.TerminalID `json:"id"`
	Shell     string           `json:"shell"`
	Cwd       string           `json:"cwd"`
	Pid       int              `json:"pid"`
	Cols      int              `json:"cols"`
	Rows      int              `json:"rows"`
	StartedAt time.Time        `json:"started_at"`
}

type ptySession struct {
	id        types.TerminalID
	proc      Process
	shell     string
	cwd       string
	startedAt time.Time

	writeMu sync.Mutex

	sizeMu sync.Mutex
	cols   int
	rows   int

	removed  atomic.Bool
	readDone chan struct{}
}

// Registry owns every pty-backed process
type Registry struct {
	spawner Spawner
	shells  *ShellProbe
	logger  *zap.Logger
	metrics *monitoring.Metrics
	seq     *id.Sequence
	max     int
	cols    int
	rows    int

	mu       sync.RWMutex
	sessions map[types.TerminalID]*ptySession
	pending  int

	events *pubsub.Bus[Event]
}

// NewRegistry creates a registry
func NewRegistry(cfg Config) *Registry {
	if cfg.Spawner == nil {
		cfg.Spawner = NewPTYSpawner()
	}
	if cfg.Shells == nil {
		cfg.Shells = NewShellProbe("", nil)
	}
	if cfg.MaxSessions <= 0 || cfg.MaxSessions > MaxSessions {
		cfg.MaxSessions = MaxSessions
	}
	if cfg.Cols <= 0 {
		cfg.Cols = DefaultCols
	}
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Registry{
		spawner:  cfg.Spawner,
		shells:   cfg.Shells,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		seq:      id.NewSequence(id.TerminalPrefix),
		max:      cfg.MaxSessions,
		cols:     cfg.Cols,
		rows:     cfg.Rows,
		sessions: make(map[types.TerminalID]*ptySession),
		events:   NewEventBus(),
	}
}

// Shells returns the shell probe used for defaults
func (r *Registry) Shells() *ShellProbe {
	return r.shells
}

// Subscribe registers for Output, Exited, Created and Failed events
func (r *Registry) Subscribe() *Subscription {
	return r.events.Subscribe()
}

// Create spawns a shell on a new pty and returns its id.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (types.TerminalID, error) {
	r.mu.Lock()
	if len(r.sessions)+r.pending >= r.max {
		r.mu.Unlock()
		return "", r.fail(ErrResourceExhausted)
	}
	r.pending++
	r.mu.Unlock()

	sess, err := r.spawn(ctx, req)

	r.mu.Lock()
	r.pending--
	if err == nil {
		r.sessions[sess.id] = sess
	}
	live := len(r.sessions)
	r.mu.Unlock()

	if err != nil {
		return "", r.fail(err)
	}

	r.metrics.TerminalCreated(live)
	r.logger.Info("terminal created",
		zap.String("terminal", sess.id.String()),
		zap.String("shell", sess.shell),
		zap.String("cwd", sess.cwd),
		zap.Int("pid", sess.proc.Pid()))
	r.events.Publish(Created{ID: sess.id})

	go r.readLoop(sess)
	go r.waitLoop(sess)

	return sess.id, nil
}

func (r *Registry) spawn(ctx context.Context, req CreateRequest) (*ptySession, error) {
	shell := r.shells.Resolve(req.Shell)
	cwd := req.Cwd
	if cwd == "" {
		cwd = homeDir()
	}
	if !r.shells.Allowed(shell) {
		return nil, &SpawnError{Shell: shell, Dir: cwd, Err: ErrShellNotAllowed}
	}

	cols, rows := req.Cols, req.Rows
	if cols <= 0 {
		cols = r.cols
	}
	if rows <= 0 {
		rows = r.rows
	}

	proc, err := r.spawner.Spawn(ctx, SpawnOptions{
		Shell: shell,
		Dir:   cwd,
		Env:   buildEnv(environ(), req.Env),
		Cols:  cols,
		Rows:  rows,
	})
	if err != nil {
		return nil, &SpawnError{Shell: shell, Dir: cwd, Err: err}
	}

	tid, _ := r.seq.Next()
	return &ptySession{
		id:        types.TerminalID(tid),
		proc:      proc,
		shell:     shell,
		cwd:       cwd,
		startedAt: time.Now(),
		cols:      cols,
		rows:      rows,
		readDone:  make(chan struct{}),
	}, nil
}

func (r *Registry) fail(err error) error {
	reason := failureReason(err)
	r.metrics.TerminalCreateFailed(reason)
	r.logger.Warn("terminal create failed", zap.String("reason", reason), zap.Error(err))
	r.events.Publish(Failed{Reason: err.Error()})
	return err
}

// readLoop is the only reader of a session's pty, so Output keeps pty order.
func (r *Registry) readLoop(s *ptySession) {
	defer close(s.readDone)

	buf := make([]byte, readBufferSize)
	for {
		n, err := s.proc.Read(buf)
		if n > 0 && !s.removed.Load() {
			data := make([]byte, n)
			copy(data, buf[:n])
			r.metrics.AddOutputBytes(n)
			r.events.Publish(Output{ID: s.id, Data: data})
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.removed.Load() {
				r.logger.Debug("pty read ended", zap.String("terminal", s.id.String()), zap.Error(err))
			}
			return
		}
	}
}

// waitLoop reaps the shell. Exited is published only when the shell ended
// on its own, and only after readLoop has delivered everything.
func (r *Registry) waitLoop(s *ptySession) {
	code, err := s.proc.Wait()
	if err != nil {
		r.logger.Debug("wait failed", zap.String("terminal", s.id.String()), zap.Error(err))
	}

	select {
	case <-s.readDone:
	case <-time.After(drainGrace):
		_ = s.proc.Close()
		<-s.readDone
	}
	_ = s.proc.Close()

	if !r.remove(s) {
		return
	}

	live := r.Live()
	r.metrics.TerminalClosed(monitoring.CauseExit, live)
	r.logger.Info("terminal exited", zap.String("terminal", s.id.String()), zap.Int("code", code))
	r.events.Publish(Exited{ID: s.id, Code: code})
}

// remove deletes s from the map; false when something else already did.
func (r *Registry) remove(s *ptySession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[s.id]; !ok || cur != s {
		return false
	}
	delete(r.sessions, s.id)
	s.removed.Store(true)
	return true
}

func (r *Registry) get(tid types.TerminalID) (*ptySession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[tid]
	return s, ok
}

// Write sends input to a session. Unknown ids are ignored.
func (r *Registry) Write(tid types.TerminalID, data []byte) error {
	s, ok := r.get(tid)
	if !ok || len(data) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.removed.Load() {
		return nil
	}
	_, err := s.proc.Write(data)
	return err
}

// Resize changes a session's pty size. Unknown ids and non-positive sizes are ignored.
func (r *Registry) Resize(tid types.TerminalID, cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	s, ok := r.get(tid)
	if !ok {
		return nil
	}

	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()

	if s.cols == cols && s.rows == rows {
		return nil
	}
	if err := s.proc.Resize(cols, rows); err != nil {
		return err
	}
	s.cols, s.rows = cols, rows
	return nil
}

// Destroy kills a session. It is idempotent and does not publish Exited.
func (r *Registry) Destroy(tid types.TerminalID) {
	s, ok := r.get(tid)
	if !ok || !r.remove(s) {
		return
	}

	if err := s.proc.Kill(); err != nil {
		r.logger.Debug("kill failed", zap.String("terminal", tid.String()), zap.Error(err))
	}
	_ = s.proc.Close()

	r.metrics.TerminalClosed(monitoring.CauseClose, r.Live())
	r.logger.Info("terminal destroyed", zap.String("terminal", tid.String()))
}

// DestroyAll kills every session
func (r *Registry) DestroyAll() {
	r.mu.RLock()
	ids := make([]types.TerminalID, 0, len(r.sessions))
	for tid := range r.sessions {
		ids = append(ids, tid)
	}
	r.mu.RUnlock()

	for _, tid := range ids {
		r.Destroy(tid)
	}
}

// Live returns the number of live sessions
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Has reports whether tid is live
func (r *Registry) Has(tid types.TerminalID) bool {
	_, ok := r.get(tid)
	return ok
}

// Info returns details about a live session
func (r *Registry) Info(tid types.TerminalID) (Info, bool) {
	s, ok := r.get(tid)
	if !ok {
		return Info{}, false
	}
	return s.info(), true
}

// List returns every live session
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.info())
	}
	return out
}

func (s *ptySession) info() Info {
	s.sizeMu.Lock()
	cols, rows := s.cols, s.rows
	s.sizeMu.Unlock()

	return Info{
		ID:        s.id,
		Shell:     s.shell,
		Cwd:       s.cwd,
		Pid:       s.proc.Pid(),
		Cols:      cols,
		Rows:      rows,
		StartedAt: s.startedAt,
	}
}
