// Package config loads, normalizes, and validates warden configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WARDEN_CONFIG and WARDEN_NTFY_TOPIC. The Config type centralizes every knob
// the daemon and CLI need, including the derived locations of the registry
// document, daemon socket, and lock files.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths, canonical log formats, and clear validation
// errors.
package config
