// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate migration notifications into concise sentences so that
// run progress stays readable for CLI users while structured telemetry continues
// to flow through the logging observer when the console format is not selected.
package ui
