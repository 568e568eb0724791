package headless

import (
	"sync"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// DefaultScrollback is the per-widget scrollback size in bytes
const DefaultScrollback = 1024 * 1024

// Font holds the pixel metrics of one character cell
type Font struct {
	CellWidth  float64 `json:"cellWidth"`
	CellHeight float64 `json:"cellHeight"`
	PaddingX   float64 `json:"paddingX"`
	PaddingY   float64 `json:"paddingY"`
}

// DefaultFont approximates a 14px monospace font
var DefaultFont = Font{CellWidth: 8.4, CellHeight: 17, PaddingX: 4, PaddingY: 4}

// Geometry returns how many characters fit into width x height pixels
func (f Font) Geometry(width, height float64) presentation.Geometry {
	cw, ch := f.CellWidth, f.CellHeight
	if cw <= 0 || ch <= 0 {
		cw, ch = DefaultFont.CellWidth, DefaultFont.CellHeight
	}
	cols := int((width - 2*f.PaddingX) / cw)
	rows := int((height - 2*f.PaddingY) / ch)
	if cols < 2 {
		cols = 2
	}
	if rows < 1 {
		rows = 1
	}
	return presentation.Geometry{Cols: cols, Rows: rows}
}

// Stats counts lifecycle calls on a widget
type Stats struct {
	Opens    int `json:"opens"`
	Attaches int `json:"attaches"`
	Detaches int `json:"detaches"`
	Fits     int `json:"fits"`
}

// Widget is a headless terminal-emulation widget
type Widget struct {
	id    types.TerminalID
	font  Font
	input func([]byte)
	buf   *Buffer

	mu       sync.Mutex
	cell     presentation.Cell
	geometry presentation.Geometry
	mounted  bool
	disposed bool
	stats    Stats
	taps     *pubsub.Bus[[]byte]
	closed   chan struct{}
}

// NewWidget creates a detached widget for id
func NewWidget(id types.TerminalID, font Font, scrollback int, input func([]byte)) *Widget {
	if input == nil {
		input = func([]byte) {}
	}
	return &Widget{
		id:     id,
		font:   font,
		input:  input,
		buf:    NewBuffer(scrollback),
		taps:   pubsub.New[[]byte](pubsub.DefaultDepth),
		closed: make(chan struct{}),
	}
}

// Factory builds headless widgets for an Orchestrator
func Factory(font Font, scrollback int) presentation.Factory {
	return func(id types.TerminalID, input func([]byte)) presentation.Widget {
		return NewWidget(id, font, scrollback, input)
	}
}

// ID returns the terminal id
func (w *Widget) ID() types.TerminalID { return w.id }

func (w *Widget) Open(cell presentation.Cell) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Opens++
	w.cell = cell
	w.mounted = true
}

func (w *Widget) Attach(cell presentation.Cell) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Attaches++
	w.cell = cell
	w.mounted = true
}

func (w *Widget) Detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Detaches++
	w.mounted = false
}

// Fit sizes the character grid to the current cell
func (w *Widget) Fit() presentation.Geometry {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Fits++
	w.geometry = w.font.Geometry(w.cell.Width, w.cell.Height)
	return w.geometry
}

// Resize sets the geometry chosen by a remote emulator
func (w *Widget) Resize(g presentation.Geometry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.geometry = g
}

// Write appends terminal output to the scrollback and forwards it to taps
func (w *Widget) Write(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed || len(data) == 0 {
		return
	}
	_, _ = w.buf.Write(data)
	w.taps.Publish(append([]byte(nil), data...))
}

// Type sends keystrokes to the terminal
func (w *Widget) Type(data []byte) {
	w.mu.Lock()
	disposed := w.disposed
	w.mu.Unlock()
	if disposed || len(data) == 0 {
		return
	}
	w.input(data)
}

// Dispose releases the widget. Taps observe Closed.
func (w *Widget) Dispose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return
	}
	w.disposed = true
	w.mounted = false
	w.buf.Reset()
	close(w.closed)
}

// Tap returns the scrollback and a subscription to output written after
// it, with no gap or overlap between the two.
func (w *Widget) Tap() ([]byte, *pubsub.Subscription[[]byte]) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.ReadAll(), w.taps.Subscribe()
}

// Closed is closed after Dispose
func (w *Widget) Closed() <-chan struct{} {
	return w.closed
}

// Scrollback returns a copy of the buffered output
func (w *Widget) Scrollback() []byte {
	return w.buf.ReadAll()
}

// Geometry returns the last fitted or resized geometry
func (w *Widget) Geometry() presentation.Geometry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.geometry
}

// Mounted reports whether the widget is on screen
func (w *Widget) Mounted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mounted
}

// Cell returns the last cell the widget was mounted in
func (w *Widget) Cell() presentation.Cell {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cell
}

// Stats returns lifecycle counters
func (w *Widget) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
