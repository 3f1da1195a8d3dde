// Package simulated provides in-process legacy and successor ledgers driven by a YAML
// fixture. The CLI uses them for dry runs and the development server uses them to decide
// how to answer migration requests.
package simulated
