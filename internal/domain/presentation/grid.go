package presentation

const (
	// MinCellWidth is the narrowest a grid column can be dragged, in pixels
	MinCellWidth = 160.0
	// MinCellHeight is the shortest a grid row can be dragged, in pixels
	MinCellHeight = 90.0
)

// GridSizes holds grid track sizes in pixels. It is not safe for
// concurrent use; the Orchestrator guards it.
type GridSizes struct {
	columns []float64
	rows    []float64
}

// NewGridSizes splits width and height evenly over cols and rows
func NewGridSizes(cols, rows int, width, height float64) *GridSizes {
	return &GridSizes{
		columns: split(cols, width),
		rows:    split(rows, height),
	}
}

func split(n int, total float64) []float64 {
	if n <= 0 {
		return nil
	}
	tracks := make([]float64, n)
	for i := range tracks {
		tracks[i] = total / float64(n)
	}
	return tracks
}

// Columns returns a copy of the column widths
func (g *GridSizes) Columns() []float64 {
	return append([]float64(nil), g.columns...)
}

// Rows returns a copy of the row heights
func (g *GridSizes) Rows() []float64 {
	return append([]float64(nil), g.rows...)
}

// Cell returns the pixel size of the cell at row, col
func (g *GridSizes) Cell(row, col int) (float64, float64) {
	if row < 0 || row >= len(g.rows) || col < 0 || col >= len(g.columns) {
		return 0, 0
	}
	return g.columns[col], g.rows[row]
}

// DragColumn moves the divider right of column i by delta pixels.
// Reports false when nothing changed.
func (g *GridSizes) DragColumn(i int, delta float64) bool {
	return drag(g.columns, i, delta, MinCellWidth)
}

// DragRow moves the divider below row i by delta pixels
func (g *GridSizes) DragRow(i int, delta float64) bool {
	return drag(g.rows, i, delta, MinCellHeight)
}

// Rescale keeps track proportions while fitting a new viewport
func (g *GridSizes) Rescale(width, height float64) {
	rescale(g.columns, width)
	rescale(g.rows, height)
}

func rescale(tracks []float64, total float64) {
	var sum float64
	for _, t := range tracks {
		sum += t
	}
	if sum <= 0 {
		copy(tracks, split(len(tracks), total))
		return
	}
	for i := range tracks {
		tracks[i] = tracks[i] / sum * total
	}
}

// drag grows tracks[i] by delta and shrinks tracks[i+1] by the same
// amount, keeping both at or above floor.
func drag(tracks []float64, i int, delta, floor float64) bool {
	if i < 0 || i+1 >= len(tracks) || delta == 0 {
		return false
	}
	a, b := tracks[i], tracks[i+1]
	if a+b < 2*floor {
		return false
	}

	if a+delta < floor {
		delta = floor - a
	}
	if b-delta < floor {
		delta = b - floor
	}
	if delta == 0 {
		return false
	}

	tracks[i] = a + delta
	tracks[i+1] = b - delta
	return true
}
