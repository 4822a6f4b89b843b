// Package config loads sleepwatch settings from defaults, an optional
// config.yaml and SLEEPWATCH_ environment variables, and validates them.
package config
