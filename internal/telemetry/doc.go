// Package telemetry exposes scheduler health over the standard gRPC health
// protocol and configures OpenTelemetry trace export for dispatch spans.
package telemetry
