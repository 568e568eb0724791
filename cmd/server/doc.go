// Package main is the entry point for the TermDeck backend server.
//
// The server owns every shell the UI shows: it spawns them on
// pseudo-terminals, groups them by project scope, keeps per-scope view
// state on disk and streams terminal I/O over websockets.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Listen on another port with sqlite records
//	./termdeck-server --port 9000 --persist sqlite
//
//	# Debug logging with a custom keymap
//	./termdeck-server --dev --log-level debug --keymap ~/.config/termdeck/keymap.yaml
//
// Signals:
//   - SIGINT, SIGTERM: save the current scope, close every terminal, exit
package main
