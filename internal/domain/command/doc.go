// Package command maps key chords to session store operations.
//
// A Keymap binds normalized chords ("Ctrl+Shift+T") to Commands. Keymaps
// load from YAML or TOML files on top of DefaultKeymap and can be
// reloaded when the file changes. The Router parses a chord, looks it up
// and dispatches the bound command against the store.
//
// Keymap file format (YAML):
//
//	bindings:
//	  Ctrl+Shift+T: new_terminal
//	  Ctrl+Alt+2: set_layout:2x2
//	  Ctrl+Shift+G: ""   # unbind
package command
