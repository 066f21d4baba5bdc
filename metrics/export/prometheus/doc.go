// Package prometheus renders authcore metrics in the Prometheus text
// exposition format.
//
// Counter names are prefixed authcore_ and end in _total; the single
// histogram is authcore_login_latency_seconds. Nothing is registered in a
// global registry: callers mount [PrometheusExporter.Handler] themselves.
package prometheus
