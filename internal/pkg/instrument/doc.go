// Package instrument wires OpenTelemetry tracing, metrics and structured
// logging.
//
// Logging always goes through slog with a JSON handler on stdout. Configured
// field names are masked, and the request correlation id is attached as
// "_cID". When OpenTelemetry is enabled, records are also bridged to the OTLP
// log exporter.
package instrument
