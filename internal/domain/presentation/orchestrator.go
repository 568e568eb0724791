package presentation

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

const (
	DefaultWidth  = 1280.0
	DefaultHeight = 800.0
)

// ErrInvalidViewport is returned for non-positive viewport sizes
var ErrInvalidViewport = errors.New("viewport must have positive width and height")

// Registry is the part of terminal.Registry the orchestrator drives
type Registry interface {
	Write(id types.TerminalID, data []byte) error
	Resize(id types.TerminalID, cols, rows int) error
	Has(id types.TerminalID) bool
	Subscribe() *terminal.Subscription
}

// Config for NewOrchestrator
type Config struct {
	Registry Registry
	Surface  Surface
	Factory  Factory
	Width    float64
	Height   float64
	Plan     PlanOptions
	Logger   *zap.Logger
}

// Orchestrator applies plans to a surface and routes terminal I/O
// between the registry and widgets.
type Orchestrator struct {
	registry Registry
	surface  Surface
	arena    *Arena
	opts     PlanOptions
	logger   *zap.Logger

	mu      sync.Mutex
	plan    Plan
	applied bool
	width   float64
	height  float64
	sizes   *GridSizes

	plans  *pubsub.Bus[Plan]
	events *terminal.Subscription
}

// NewOrchestrator subscribes to registry output immediately; Run must be
// started to consume it.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}

	o := &Orchestrator{
		registry: cfg.Registry,
		surface:  cfg.Surface,
		opts:     cfg.Plan,
		logger:   cfg.Logger,
		width:    cfg.Width,
		height:   cfg.Height,
		sizes:    NewGridSizes(1, 1, cfg.Width, cfg.Height),
		plans:    pubsub.New[Plan](64),
		events:   cfg.Registry.Subscribe(),
	}
	o.arena = NewArena(cfg.Factory, o.Input)
	return o
}

// Arena returns the widget arena
func (o *Orchestrator) Arena() *Arena {
	return o.arena
}

// SubscribePlans returns a subscription to every applied plan
func (o *Orchestrator) SubscribePlans() *pubsub.Subscription[Plan] {
	return o.plans.Subscribe()
}

// Plan returns the last applied plan
func (o *Orchestrator) Plan() Plan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plan
}

// Run feeds registry output into widgets and applies a plan for every
// snapshot until ctx is done or snaps is cancelled.
func (o *Orchestrator) Run(ctx context.Context, snaps *pubsub.Subscription[session.Snapshot]) {
	defer o.events.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-o.events.C():
			if !ok {
				return
			}
			if out, isOutput := ev.(terminal.Output); isOutput {
				o.Feed(out.ID, out.Data)
			}
		case snap, ok := <-snaps.C():
			if !ok {
				return
			}
			o.Sync(snap)
		}
	}
}

// Sync applies the plan for snap and disposes widgets of sessions snap
// no longer tracks. It never calls back into the store.
func (o *Orchestrator) Sync(snap session.Snapshot) {
	o.Apply(BuildPlan(snap, o.opts))
	for _, tid := range o.arena.prune(snap.Tracks, o.registry.Has) {
		o.logger.Debug("widget disposed", zap.String("terminal", tid.String()))
	}
}

// Apply mounts plan. The surface layout is reset first whenever the mode
// or grid layout differs from the previous plan.
func (o *Orchestrator) Apply(plan Plan) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.applied || !plan.sameArrangement(o.plan) {
		o.surface.ResetLayout()
		o.sizes = NewGridSizes(plan.Cols, plan.Rows, o.width, o.height)
		o.surface.ApplyLayout(o.styleLocked(plan))
	}

	for _, tid := range o.arena.Mounted() {
		if !plan.Shown(tid) {
			o.arena.Detach(tid)
		}
	}

	o.plan = plan
	o.applied = true
	o.mountLocked()

	o.plans.Publish(plan)
}

// mountLocked mounts every slot of the current plan, fitting widgets
// whose cell changed.
func (o *Orchestrator) mountLocked() {
	for _, slot := range o.plan.Slots {
		if !o.registry.Has(slot.ID) {
			continue
		}
		if o.arena.Mount(slot.ID, o.cellLocked(slot)) {
			o.fit(slot.ID)
		}
	}
}

func (o *Orchestrator) styleLocked(plan Plan) LayoutStyle {
	if plan.Mode != types.ViewGrid {
		return LayoutStyle{Mode: types.ViewTabs, Rows: 1, Cols: 1}
	}
	return LayoutStyle{
		Mode:         types.ViewGrid,
		Rows:         plan.Rows,
		Cols:         plan.Cols,
		ColumnWidths: o.sizes.Columns(),
		RowHeights:   o.sizes.Rows(),
	}
}

func (o *Orchestrator) cellLocked(slot Slot) Cell {
	if o.plan.Mode != types.ViewGrid {
		return Cell{Width: o.width, Height: o.height}
	}
	w, h := o.sizes.Cell(slot.Row, slot.Col)
	return Cell{Index: slot.Index, Row: slot.Row, Col: slot.Col, Width: w, Height: h}
}

// fit recomputes widget geometry and tells the registry the same size
func (o *Orchestrator) fit(tid types.TerminalID) {
	w, ok := o.arena.Widget(tid)
	if !ok {
		return
	}
	g := w.Fit()
	if !g.Valid() {
		return
	}
	if err := o.registry.Resize(tid, g.Cols, g.Rows); err != nil {
		o.logger.Debug("pty resize failed",
			zap.String("terminal", tid.String()),
			zap.Error(err))
	}
}

// SetViewport changes the pixel size of the content area and refits
// mounted widgets.
func (o *Orchestrator) SetViewport(width, height float64) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidViewport
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.width, o.height = width, height
	o.sizes.Rescale(width, height)
	if o.applied {
		o.surface.ApplyLayout(o.styleLocked(o.plan))
		o.mountLocked()
	}
	return nil
}

// Viewport returns the content area size
func (o *Orchestrator) Viewport() (float64, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.width, o.height
}

// DragColumn moves the divider right of grid column i. Only grid mode has
// dividers.
func (o *Orchestrator) DragColumn(i int, delta float64) bool {
	return o.drag(func(g *GridSizes) bool { return g.DragColumn(i, delta) })
}

// DragRow moves the divider below grid row i
func (o *Orchestrator) DragRow(i int, delta float64) bool {
	return o.drag(func(g *GridSizes) bool { return g.DragRow(i, delta) })
}

func (o *Orchestrator) drag(move func(*GridSizes) bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.plan.Mode != types.ViewGrid || !move(o.sizes) {
		return false
	}
	o.surface.ApplyLayout(o.styleLocked(o.plan))
	o.mountLocked()
	return true
}

// GridTracks returns the current column widths and row heights
func (o *Orchestrator) GridTracks() ([]float64, []float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sizes.Columns(), o.sizes.Rows()
}

// Feed writes registry output into the widget for tid, creating the
// widget if the terminal is alive.
func (o *Orchestrator) Feed(tid types.TerminalID, data []byte) {
	w, ok := o.Widget(tid)
	if !ok {
		return
	}
	w.Write(data)
}

// Widget returns the widget for tid, creating a detached one for a live
// terminal.
func (o *Orchestrator) Widget(tid types.TerminalID) (Widget, bool) {
	if w, ok := o.arena.Widget(tid); ok {
		return w, true
	}
	if !o.registry.Has(tid) {
		return nil, false
	}
	return o.arena.Ensure(tid), true
}

// Input forwards keystrokes to the terminal. Unknown ids are ignored.
func (o *Orchestrator) Input(tid types.TerminalID, data []byte) {
	if err := o.registry.Write(tid, data); err != nil {
		o.logger.Debug("pty write failed",
			zap.String("terminal", tid.String()),
			zap.Error(err))
	}
}

// ResizeTerminal applies a geometry chosen by a client to both the widget
// and the pty.
func (o *Orchestrator) ResizeTerminal(tid types.TerminalID, cols, rows int) {
	g := Geometry{Cols: cols, Rows: rows}
	if !g.Valid() {
		return
	}
	if w, ok := o.arena.Widget(tid); ok {
		if r, ok := w.(Resizer); ok {
			r.Resize(g)
		}
	}
	if err := o.registry.Resize(tid, cols, rows); err != nil {
		o.logger.Debug("pty resize failed",
			zap.String("terminal", tid.String()),
			zap.Error(err))
	}
}
