package ciutil

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Environment variable names read by tests and tooling.
const (
	// EnvDockerTest opts in to tests that start containers.
	EnvDockerTest = "DOCKER_TEST"

	// Broker addresses, preferred first
	EnvTestBrokerURL = "SLEEPWATCH_TEST_BROKER_URL"
	EnvBrokerURL     = "SLEEPWATCH_MQTT_BROKER"

	// DefaultLocalBrokerURL matches the local_dev compose file.
	DefaultLocalBrokerURL = "tcp://127.0.0.1:1883"
)

// DockerTestsEnabled reports whether container-backed tests should run.
func DockerTestsEnabled() bool {
	return os.Getenv(EnvDockerTest) == "1"
}

// GetEnvWithFallbacks returns the value of the first non-empty environment
// variable in envVars, or defaultValue if none is set. Using anything but
// the first name logs a warning with the value masked.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			if i > 0 && logger != nil {
				logger.Warn("Using fallback environment variable",
					"used_var", envVar,
					"preferred_var", envVars[0],
					"value", MaskSensitiveValue(val),
				)
			}
			return val
		}
	}
	return defaultValue
}

// TestBrokerURL returns the broker integration tests should connect to.
func TestBrokerURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks(
		[]string{EnvTestBrokerURL, EnvBrokerURL},
		DefaultLocalBrokerURL,
		logger,
	)
}

// MaskSensitiveValue hides the password of a URL with userinfo and the
// middle of anything that looks like a key or token.
func MaskSensitiveValue(value string) string {
	if u, err := url.Parse(value); err == nil && u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "****")
			// url.String escapes the placeholder
			return strings.Replace(u.String(), "%2A%2A%2A%2A", "****", 1)
		}
	}

	lower := strings.ToLower(value)
	if len(value) > 8 && (strings.Contains(lower, "key") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "secret") ||
		strings.HasPrefix(value, "AIza")) {
		return value[:4] + "****" + value[len(value)-4:]
	}

	return value
}
