// Package metrics collects Prometheus metrics about ranking runs.
//
// The CLI is short-lived, so metrics are not served over HTTP. Instead
// WriteTextfile exports them once per invocation for the node exporter
// textfile collector.
package metrics
