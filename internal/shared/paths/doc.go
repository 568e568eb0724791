// Package paths provides the on-disk locations used by the backend:
// session records, the sqlite database and the user keymap.
//
// PERSIST_DIR and KEYMAP_PATH override these defaults.
package paths
