// Package telemetry records named show events. Every event lands in a
// bounded in-memory hub for inspection and long-poll streaming, and is
// optionally batched to a remote collector over HTTP. Recording never
// fails and never blocks the caller.
package telemetry
