package presentation

import (
	"github.com/mattn/go-runewidth"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// DefaultTitleWidth bounds tab titles, in terminal columns
const DefaultTitleWidth = 24

const ellipsis = "…"

// PlanOptions tune BuildPlan
type PlanOptions struct {
	MaxTitleWidth int
}

// Slot assigns a terminal to a cell
type Slot struct {
	Index int              `json:"index"`
	Row   int              `json:"row"`
	Col   int              `json:"col"`
	ID    types.TerminalID `json:"id"`
}

// Tab is the label of one visible session
type Tab struct {
	ID     types.TerminalID `json:"id"`
	Title  string           `json:"title"`
	Active bool             `json:"active"`
}

// Plan says which terminals are mounted where
type Plan struct {
	Revision uint64           `json:"revision"`
	Scope    types.Scope      `json:"scope"`
	Mode     types.ViewMode   `json:"mode"`
	Layout   types.GridLayout `json:"layout"`
	Rows     int              `json:"rows"`
	Cols     int              `json:"cols"`
	Slots    []Slot           `json:"slots"`
	Tabs     []Tab            `json:"tabs"`
	// Hidden sessions keep running but have no cell
	Hidden []types.TerminalID `json:"hidden,omitempty"`
}

// Shown reports whether id has a slot
func (p Plan) Shown(id types.TerminalID) bool {
	for _, slot := range p.Slots {
		if slot.ID == id {
			return true
		}
	}
	return false
}

// sameArrangement reports whether p and o use the same container layout
func (p Plan) sameArrangement(o Plan) bool {
	if p.Mode != o.Mode {
		return false
	}
	return p.Mode != types.ViewGrid || p.Layout == o.Layout
}

// BuildPlan computes the plan for a snapshot.
//
// Tab mode shows the active session alone. Grid mode shows the first
// rows*cols sessions in creation order; the rest are hidden.
func BuildPlan(snap session.Snapshot, opts PlanOptions) Plan {
	width := opts.MaxTitleWidth
	if width <= 0 {
		width = DefaultTitleWidth
	}

	layout := snap.GridLayout
	if !layout.Valid() {
		layout = types.DefaultGridLayout
	}

	plan := Plan{
		Revision: snap.Revision,
		Scope:    snap.Scope,
		Mode:     snap.ViewMode,
		Layout:   layout,
		Slots:    []Slot{},
		Tabs:     make([]Tab, 0, len(snap.Sessions)),
	}

	for _, sess := range snap.Sessions {
		plan.Tabs = append(plan.Tabs, Tab{
			ID:     sess.ID,
			Title:  runewidth.Truncate(sess.DisplayName(), width, ellipsis),
			Active: sess.ID == snap.ActiveID,
		})
	}

	if plan.Mode != types.ViewGrid {
		plan.Mode = types.ViewTabs
		plan.Rows, plan.Cols = 1, 1
		for _, sess := range snap.Sessions {
			if sess.ID == snap.ActiveID {
				plan.Slots = append(plan.Slots, Slot{ID: sess.ID})
				continue
			}
			plan.Hidden = append(plan.Hidden, sess.ID)
		}
		return plan
	}

	plan.Rows, plan.Cols = layout.Rows(), layout.Cols()
	for i, sess := range snap.Sessions {
		if i >= layout.Cells() {
			plan.Hidden = append(plan.Hidden, sess.ID)
			continue
		}
		plan.Slots = append(plan.Slots, Slot{
			Index: i,
			Row:   i / plan.Cols,
			Col:   i % plan.Cols,
			ID:    sess.ID,
		})
	}
	return plan
}
