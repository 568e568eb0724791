// Package persistence stores per-scope view state: the active terminal,
// tab/grid mode, grid layout and custom terminal names.
//
// Backends:
//   - FileBackend: one JSON file per scope, atomic temp+fsync+rename
//   - SQLiteBackend: modernc.org/sqlite, WAL, one upserted row per scope
//   - MemoryBackend: tests and PERSIST_BACKEND=memory
//
// Service wraps a Backend for the session store. Persistence is best
// effort: failures are logged and counted, and a load failure reads the
// same as "no record".
package persistence
