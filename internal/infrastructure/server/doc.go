// Package server builds the gin engine for the terminal deck and runs it
// with graceful shutdown.
package server
