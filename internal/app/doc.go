// Package app assembles the terminal deck: pty registry, session records,
// session store, presentation orchestrator and shortcut router, and owns
// their background loops.
package app
