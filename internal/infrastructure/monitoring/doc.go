/*
Package monitoring provides interpreter metrics collection.

# Overview

Prometheus collectors for entry calls, parses and cache lookups, plus a
mutex-guarded snapshot that the CLI prints as JSON.

# Metrics

	cipherjs_calls_total{function,status}
	cipherjs_call_duration_seconds{function}
	cipherjs_call_steps
	cipherjs_parse_total{status}
	cipherjs_cache_requests_total{result}

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	timer := monitoring.NewTimer(metrics, "sig")
	// ... call the function ...
	timer.Stop(monitoring.StatusOK, steps)
*/
package monitoring
