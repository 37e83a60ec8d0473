// Package config loads run configuration from an optional TOML settings
// file and the environment, with defaults applied first.
package config
