// Package ws serves the websocket side of the API.
//
// /terminals/:id/stream carries one terminal: the widget scrollback is
// replayed on connect, then output flows as binary frames. Binary frames
// from the client are keystrokes; a JSON text frame {"type":"resize"}
// resizes the pty. The stream closes when the terminal's widget is
// disposed.
//
// /events pushes every session snapshot and presentation plan as JSON.
package ws
