// Package telemetry provides the observability plumbing for dotfix:
// structured logging (zerolog), the unbuffered run timeline trace, span
// export (OpenTelemetry), and Prometheus metrics.
//
// The display stream tasks write to lives in pkg/output; telemetry carries
// the machine-readable side. The two are independent: the timeline records
// events in true occurrence order while the display stream is buffered per
// task and replayed in completion order.
package telemetry
