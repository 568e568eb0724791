package presentation

import "github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"

// Cell is a content area in pixels. Tab mode has a single cell covering
// the viewport.
type Cell struct {
	Index  int     `json:"index"`
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Geometry is a character grid size
type Geometry struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// Valid reports whether both dimensions are positive
func (g Geometry) Valid() bool {
	return g.Cols > 0 && g.Rows > 0
}

// Widget is one terminal-emulation instance.
//
// Open is called once, on first mount. Later mounts call Attach on the
// same instance. Fit recomputes the character geometry for the current
// cell.
type Widget interface {
	Open(cell Cell)
	Attach(cell Cell)
	Detach()
	Fit() Geometry
	Write(data []byte)
	Dispose()
}

// Resizer is implemented by widgets that accept a geometry chosen by a
// remote client instead of fitting their cell.
type Resizer interface {
	Resize(g Geometry)
}

// Factory creates the widget for a terminal. input receives keystrokes
// typed into the widget.
type Factory func(id types.TerminalID, input func(data []byte)) Widget

// LayoutStyle is the container-level layout a mode applies to a Surface
type LayoutStyle struct {
	Mode         types.ViewMode `json:"mode,omitempty"`
	Rows         int            `json:"rows,omitempty"`
	Cols         int            `json:"cols,omitempty"`
	ColumnWidths []float64      `json:"columnWidths,omitempty"`
	RowHeights   []float64      `json:"rowHeights,omitempty"`
}

// Surface is the container widgets are mounted into. ApplyLayout sets
// properties on top of whatever is already there; ResetLayout clears them.
type Surface interface {
	ResetLayout()
	ApplyLayout(style LayoutStyle)
}
