// Package session tracks terminal sessions per project scope.
//
// The Store is the single owner of session state:
//   - which sessions exist and which scope each belongs to
//   - the active session of every scope
//   - the tab/grid view state of the current scope
//
// Switching scope saves the outgoing scope's view state through a
// RecordStore and restores the incoming one. Terminals keep running in
// every scope; only visibility changes.
//
// Snapshots are published outside the state lock, so a subscriber may
// read the Store while handling one.
//
// Example Usage:
//
//	store := session.NewStore(registry, records, logger, metrics)
//	go store.Run(ctx)
//	sess, err := store.CreateSession(ctx, session.CreateOptions{})
//	snap := store.SwitchScope(ctx, types.ScopeFor("/work/api"))
package session
