// Package metrics exports migration telemetry as Prometheus counters.
package metrics
