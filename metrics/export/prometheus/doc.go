// Package prometheus provides Prometheus collectors for materna session
// metrics.
//
// [NewPrometheusExporter] accepts a [materna.Client] and exposes an
// http.Handler that renders all counters and histograms in Prometheus text
// exposition format. Counter names are prefixed materna_*_total; the single
// histogram is materna_wipe_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the
//     Handler.
//   - Mutate client state.
package prometheus
