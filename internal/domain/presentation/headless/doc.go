// Package headless implements presentation widgets and surfaces without a
// screen. Widgets keep a scrollback ring buffer and derive character
// geometry from cell pixels and font metrics, so remote UIs can replay
// output and size their own emulators to match the pty.
package headless
