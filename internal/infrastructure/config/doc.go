// Package config provides YAML-based configuration loading with environment
// variable overrides for the SmartThings bridge.
//
// Configuration is resolved in three layers: hardcoded defaults, then the
// YAML file, then STBRIDGE_* environment variables. The loaded configuration
// is validated before use so the bridge fails fast on bad settings rather
// than misbehaving at runtime.
package config
