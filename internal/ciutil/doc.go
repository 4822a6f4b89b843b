// Package ciutil resolves the environment variables integration tests use
// to reach external services such as the MQTT broker, and decides whether
// container-backed tests run at all.
package ciutil
