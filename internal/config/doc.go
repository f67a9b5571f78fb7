// Package config loads, normalizes, and validates the postscan TOML
// configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/postscan/config.toml, then a ./postscan.toml project file.
// Missing files fall back to repository defaults so read-only commands work
// out of the box. A .env file, when present, is loaded before environment
// overrides are applied.
package config
