// Package config loads, validates, and defaults lectern configuration.
//
// Configuration comes from a TOML file (default ~/.config/lectern/config.toml)
// with environment overrides applied on top. Call Load to obtain a validated
// Config; missing files fall back to Default values so a fresh install runs
// without any configuration.
package config
