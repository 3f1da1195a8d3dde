// Package telemetry defines the fine-grained observer notified while a migration
// runs: version checks, per-account burns and migration requests, and the final
// ready or failed outcome. Implementations include a no-op observer, a zap-backed
// logging observer, fan-out to several observers, and a serializing wrapper.
package telemetry
