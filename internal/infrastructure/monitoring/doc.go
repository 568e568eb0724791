/*
Package monitoring provides Prometheus metrics for the terminal backend.

# Overview

Every Metrics value owns a private prometheus.Registry. The server mounts
Handler at /metrics; components receive the *Metrics they report into.
All recording methods accept a nil receiver.

# Metrics

- HTTP requests (latency, throughput, size), labelled by route template
- Live terminals, spawns, removals by cause (close|exit), spawn failures
- Pty output bytes
- Scope switches
- Session record operations and swallowed failures
- WebSocket connections and messages

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "save")
	// ... write record ...
	timer.Stop("success")
*/
package monitoring
