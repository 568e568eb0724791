package types

import (
	"fmt"
	"strings"
)

// TerminalID identifies a terminal session for the lifetime of the process
type TerminalID string

func (id TerminalID) String() string { return string(id) }

// Scope is the project a terminal belongs to
type Scope string

// GlobalScope is used when no project is selected
const GlobalScope Scope = "@global"

// ScopeFor maps a project path to its scope; an empty path is the global scope.
func ScopeFor(path string) Scope {
	path = strings.TrimSpace(path)
	if path == "" {
		return GlobalScope
	}
	return Scope(path)
}

// IsGlobal reports whether s is the no-project scope
func (s Scope) IsGlobal() bool { return s == GlobalScope }

// ProjectPath returns the project directory, or "" for the global scope.
func (s Scope) ProjectPath() string {
	if s.IsGlobal() || s == "" {
		return ""
	}
	return string(s)
}

// Key is the persistence key for the scope
func (s Scope) Key() string { return string(s) }

func (s Scope) String() string { return string(s) }

// ViewMode selects between one terminal at a time and a grid
type ViewMode string

const (
	ViewTabs ViewMode = "tabs"
	ViewGrid ViewMode = "grid"
)

// DefaultViewMode is used for scopes with no saved record
const DefaultViewMode = ViewTabs

// ParseViewMode validates a view mode string
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewTabs:
		return ViewTabs, nil
	case ViewGrid:
		return ViewGrid, nil
	}
	return "", fmt.Errorf("invalid view mode %q", s)
}

// Toggle returns the other view mode
func (m ViewMode) Toggle() ViewMode {
	if m == ViewGrid {
		return ViewTabs
	}
	return ViewGrid
}

// GridLayout is a rows x cols grid arrangement
type GridLayout string

const (
	Grid1x2 GridLayout = "1x2"
	Grid1x3 GridLayout = "1x3"
	Grid1x4 GridLayout = "1x4"
	Grid2x1 GridLayout = "2x1"
	Grid2x2 GridLayout = "2x2"
	Grid3x1 GridLayout = "3x1"
	Grid3x2 GridLayout = "3x2"
	Grid3x3 GridLayout = "3x3"
)

// DefaultGridLayout is used for scopes with no saved record
const DefaultGridLayout = Grid2x2

var gridDims = map[GridLayout][2]int{
	Grid1x2: {1, 2},
	Grid1x3: {1, 3},
	Grid1x4: {1, 4},
	Grid2x1: {2, 1},
	Grid2x2: {2, 2},
	Grid3x1: {3, 1},
	Grid3x2: {3, 2},
	Grid3x3: {3, 3},
}

// GridLayouts lists every supported layout
func GridLayouts() []GridLayout {
	return []GridLayout{Grid1x2, Grid1x3, Grid1x4, Grid2x1, Grid2x2, Grid3x1, Grid3x2, Grid3x3}
}

// ParseGridLayout accepts "2x2" and "2×2"
func ParseGridLayout(s string) (GridLayout, error) {
	normalized := GridLayout(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "×", "x"))
	if _, ok := gridDims[normalized]; !ok {
		return "", fmt.Errorf("invalid grid layout %q", s)
	}
	return normalized, nil
}

// Valid reports whether l is a supported layout
func (l GridLayout) Valid() bool {
	_, ok := gridDims[l]
	return ok
}

// Rows returns the number of grid rows
func (l GridLayout) Rows() int { return gridDims[l][0] }

// Cols returns the number of grid columns
func (l GridLayout) Cols() int { return gridDims[l][1] }

// Cells returns rows*cols
func (l GridLayout) Cells() int { return l.Rows() * l.Cols() }
