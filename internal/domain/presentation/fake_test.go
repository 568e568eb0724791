package presentation_test

import (
	"sync"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

type fakeRegistry struct {
	mu      sync.Mutex
	live    map[types.TerminalID]bool
	sizes   map[types.TerminalID]presentation.Geometry
	writes  map[types.TerminalID][]byte
	resizes int
	events  *pubsub.Bus[terminal.Event]
}

func newFakeRegistry(ids ...types.TerminalID) *fakeRegistry {
	r := &fakeRegistry{
		live:   make(map[types.TerminalID]bool),
		sizes:  make(map[types.TerminalID]presentation.Geometry),
		writes: make(map[types.TerminalID][]byte),
		events: terminal.NewEventBus(),
	}
	for _, tid := range ids {
		r.live[tid] = true
	}
	return r
}

func (r *fakeRegistry) Write(tid types.TerminalID, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live[tid] {
		r.writes[tid] = append(r.writes[tid], data...)
	}
	return nil
}

func (r *fakeRegistry) Resize(tid types.TerminalID, cols, rows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live[tid] {
		r.sizes[tid] = presentation.Geometry{Cols: cols, Rows: rows}
		r.resizes++
	}
	return nil
}

func (r *fakeRegistry) Has(tid types.TerminalID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[tid]
}

func (r *fakeRegistry) Subscribe() *terminal.Subscription {
	return r.events.Subscribe()
}

func (r *fakeRegistry) add(tid types.TerminalID) {
	r.mu.Lock()
	r.live[tid] = true
	r.mu.Unlock()
}

func (r *fakeRegistry) kill(tid types.TerminalID) {
	r.mu.Lock()
	delete(r.live, tid)
	r.mu.Unlock()
}

func (r *fakeRegistry) size(tid types.TerminalID) (presentation.Geometry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.sizes[tid]
	return g, ok
}

func (r *fakeRegistry) written(tid types.TerminalID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.writes[tid])
}
