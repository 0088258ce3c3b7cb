// Package config loads, normalizes, and validates subgen configuration data.
//
// It supplies defaults matching the command line tool, expands user paths
// (including tilde shortcuts), reads TOML files, and honours environment
// fallbacks such as SUBGEN_MODEL and HF_TOKEN. Command line flags are applied
// on top of the loaded Config by the CLI, which re-runs Validate afterwards.
package config
