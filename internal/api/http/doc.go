// Package http exposes the session store, the presentation orchestrator and
// the shortcut router over REST.
//
// Errors are mapped to status codes in one place (statusFor): a full
// registry is 429, a shell that cannot start is 500, bad input is 400 and
// an unknown terminal is 404.
package http
