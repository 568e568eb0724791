package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/persistence"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

type fakeRegistry struct {
	mu        sync.Mutex
	live      map[types.TerminalID]terminal.CreateRequest
	next      int
	failNext  error
	destroyed []types.TerminalID
	events    *pubsub.Bus[terminal.Event]
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		live:   make(map[types.TerminalID]terminal.CreateRequest),
		events: terminal.NewEventBus(),
	}
}

func (r *fakeRegistry) Create(_ context.Context, req terminal.CreateRequest) (types.TerminalID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return "", err
	}
	if len(r.live) >= terminal.MaxSessions {
		return "", terminal.ErrResourceExhausted
	}
	r.next++
	tid := types.TerminalID(fmt.Sprintf("term-%d", r.next))
	r.live[tid] = req
	return tid, nil
}

func (r *fakeRegistry) Destroy(tid types.TerminalID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[tid]; ok {
		delete(r.live, tid)
		r.destroyed = append(r.destroyed, tid)
	}
}

func (r *fakeRegistry) DestroyAll() {
	r.mu.Lock()
	ids := make([]types.TerminalID, 0, len(r.live))
	for tid := range r.live {
		ids = append(ids, tid)
	}
	r.mu.Unlock()
	for _, tid := range ids {
		r.Destroy(tid)
	}
}

func (r *fakeRegistry) Has(tid types.TerminalID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[tid]
	return ok
}

func (r *fakeRegistry) Info(tid types.TerminalID) (terminal.Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.live[tid]
	if !ok {
		return terminal.Info{}, false
	}
	shell := req.Shell
	if shell == "" {
		shell = "/bin/fake"
	}
	return terminal.Info{ID: tid, Shell: shell, Cwd: req.Cwd}, true
}

func (r *fakeRegistry) Subscribe() *terminal.Subscription {
	return r.events.Subscribe()
}

// exit simulates a shell ending on its own
func (r *fakeRegistry) exit(tid types.TerminalID, code int) {
	r.mu.Lock()
	delete(r.live, tid)
	r.mu.Unlock()
	r.events.Publish(terminal.Exited{ID: tid, Code: code})
}

func (r *fakeRegistry) request(tid types.TerminalID) terminal.CreateRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[tid]
}

func (r *fakeRegistry) liveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// recordingStore wraps a persistence.Service and counts calls
type recordingStore struct {
	inner *persistence.Service

	mu      sync.Mutex
	saves   map[types.Scope]int
	loads   map[types.Scope]int
	deletes map[types.Scope]int
	gate    chan struct{}
}

func newRecordingStore(backend persistence.Backend) *recordingStore {
	return &recordingStore{
		inner:   persistence.NewService(backend, nil, nil),
		saves:   make(map[types.Scope]int),
		loads:   make(map[types.Scope]int),
		deletes: make(map[types.Scope]int),
	}
}

func (r *recordingStore) Load(ctx context.Context, scope types.Scope) (*persistence.Record, bool) {
	r.mu.Lock()
	r.loads[scope]++
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return r.inner.Load(ctx, scope)
}

func (r *recordingStore) Save(ctx context.Context, scope types.Scope, rec persistence.Record) {
	r.mu.Lock()
	r.saves[scope]++
	r.mu.Unlock()
	r.inner.Save(ctx, scope, rec)
}

func (r *recordingStore) Delete(ctx context.Context, scope types.Scope) {
	r.mu.Lock()
	r.deletes[scope]++
	r.mu.Unlock()
	r.inner.Delete(ctx, scope)
}

func (r *recordingStore) deleteCount(scope types.Scope) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletes[scope]
}

func (r *recordingStore) saveCount(scope types.Scope) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[scope]
}

func (r *recordingStore) loadCount(scope types.Scope) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads[scope]
}

// stepClock advances one millisecond per reading
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Millisecond)
	return c.cur
}
