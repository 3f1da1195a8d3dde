// Package devserver serves a development version endpoint and migration endpoint backed by
// simulated ledgers, plus Prometheus metrics.
package devserver
