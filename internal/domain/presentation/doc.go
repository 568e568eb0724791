// Package presentation turns session store snapshots into mount
// instructions for terminal-emulation widgets.
//
// BuildPlan is a pure function of a Snapshot. The Orchestrator applies
// plans to a Surface, keeps one Widget per terminal in an Arena and
// keeps widget geometry and pty size in step: every fit is followed by a
// registry resize with the same cols and rows.
//
// Widgets are never re-opened. A session that leaves the screen is
// detached and keeps its scrollback; showing it again attaches the same
// instance.
package presentation
