package types

// CreateTerminalRequest creates a terminal in a scope
type CreateTerminalRequest struct {
	Cwd   string `json:"cwd,omitempty"`
	Scope string `json:"scope,omitempty"`
	Name  string `json:"name,omitempty"`
	Shell string `json:"shell,omitempty"`
}

// RenameRequest sets a terminal's custom name; empty restores the default
type RenameRequest struct {
	Name string `json:"name"`
}

// ResizeRequest forwards a pty resize
type ResizeRequest struct {
	Cols int `json:"cols" binding:"required,min=1"`
	Rows int `json:"rows" binding:"required,min=1"`
}

// ScopeRequest switches the current project; empty path selects the global scope
type ScopeRequest struct {
	Path string `json:"path"`
}

// ViewModeRequest sets tabs/grid
type ViewModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// GridLayoutRequest sets the grid arrangement
type GridLayoutRequest struct {
	Layout string `json:"layout" binding:"required"`
}

// ViewportRequest reports the pixel size of the terminal content area
type ViewportRequest struct {
	Width  float64 `json:"width" binding:"required,gt=0"`
	Height float64 `json:"height" binding:"required,gt=0"`
}

// GridDragRequest moves a grid divider by Delta pixels
type GridDragRequest struct {
	Axis  string  `json:"axis" binding:"required,oneof=column row"`
	Index int     `json:"index"`
	Delta float64 `json:"delta"`
}

// ChordRequest submits a key chord to the shortcut router
type ChordRequest struct {
	Chord string `json:"chord" binding:"required"`
}

// CommandRequest dispatches a command such as "set_layout:2x2"
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ControlMessage is a JSON text frame on a terminal stream: "resize" with
// Cols/Rows, or "input" with Data for clients that cannot send binary frames
type ControlMessage struct {
	Type string `json:"type"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
	Data string `json:"data,omitempty"`
}
