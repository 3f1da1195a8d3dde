// Package flagstore persists boolean flags that must survive process restarts.
//
// Store implementations are selected by configuration: an in-memory store for tests and
// dry runs, a YAML file store for single-host installs, and a Redis store for shared
// deployments.
package flagstore
