// Package middleware holds the gin middleware shared by the HTTP and
// websocket routes: CORS, per-IP and global rate limits, request ids and
// request logging.
package middleware
