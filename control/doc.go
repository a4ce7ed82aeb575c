// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the relay.
//
// Provides concurrent-safe observability primitives:
//   - Prometheus counters, gauges and histograms on a private registry
//   - Debug probe registration and JSON state export
//   - An optional HTTP endpoint serving both
//
// Everything here may be touched from goroutines other than the event loop.
package control
