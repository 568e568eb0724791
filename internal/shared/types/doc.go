// Package types provides shared data structures for the TermDeck backend.
//
// Core Types:
//   - TerminalID: identifier of a pty-backed terminal session
//   - Scope: project a terminal belongs to (or GlobalScope)
//   - ViewMode: tabs or grid
//   - GridLayout: rows x cols arrangement for grid mode
//   - request bodies for the HTTP and websocket API
package types
