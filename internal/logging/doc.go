// Package logging provides slog construction helpers, standardized
// attribute keys, and pruning of aged log files.
package logging
