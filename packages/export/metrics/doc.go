// Package metrics derives duration and outcome metrics from a finished test
// run and exports them as JSON or Prometheus text.
package metrics
