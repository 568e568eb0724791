package headless

import (
	"sync"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
)

// Surface records container layout the way a style sheet would: applied
// properties stay until they are overwritten or reset.
type Surface struct {
	mu      sync.Mutex
	style   presentation.LayoutStyle
	resets  int
	applies int
}

// NewSurface creates an empty surface
func NewSurface() *Surface {
	return &Surface{}
}

func (s *Surface) ResetLayout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = presentation.LayoutStyle{}
	s.resets++
}

// ApplyLayout sets every non-zero property of style
func (s *Surface) ApplyLayout(style presentation.LayoutStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applies++

	if style.Mode != "" {
		s.style.Mode = style.Mode
	}
	if style.Rows > 0 {
		s.style.Rows = style.Rows
	}
	if style.Cols > 0 {
		s.style.Cols = style.Cols
	}
	if len(style.ColumnWidths) > 0 {
		s.style.ColumnWidths = append([]float64(nil), style.ColumnWidths...)
	}
	if len(style.RowHeights) > 0 {
		s.style.RowHeights = append([]float64(nil), style.RowHeights...)
	}
}

// Style returns the effective layout
func (s *Surface) Style() presentation.LayoutStyle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.style
	out.ColumnWidths = append([]float64(nil), s.style.ColumnWidths...)
	out.RowHeights = append([]float64(nil), s.style.RowHeights...)
	return out
}

// Resets returns how often the layout was reset
func (s *Surface) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}
