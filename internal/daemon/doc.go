// Package daemon runs the breathing show as a long-lived process: the
// rotation controller and carousel engine drive a server-side render
// model, and an HTTP API exposes the manifest, current state, a
// long-poll event stream, input injection, the telemetry collector,
// and the session index.
package daemon
