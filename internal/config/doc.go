// Package config loads, validates, and defaults the TOML configuration
// shared by the breathe daemon and CLI commands.
package config
