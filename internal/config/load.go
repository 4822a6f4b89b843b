package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SLEEPWATCH"

// defaults lists every key with its default value. Keys must be registered
// for viper to bind them to environment variables on Unmarshal.
var defaults = map[string]any{
	"server.port":      8080,
	"server.log_level": "info",

	"tracking.bed_time":                  "22:30",
	"tracking.wake_time":                 "06:30",
	"tracking.enabled":                   true,
	"tracking.timezone":                  "",
	"tracking.sample_interval_ms":        10000,
	"tracking.evaluate_interval_seconds": 30,
	"tracking.inbox_size":                256,

	"llm.gemini_api_key":       "",
	"llm.model_name":           "gemini-2.0-flash",
	"llm.prompt_template_path": "",
	"llm.timeout_seconds":      60,
	"llm.max_retries":          3,
	"llm.retry_delay_ms":       1000,

	"mqtt.broker":                  "tcp://localhost:1883",
	"mqtt.client_id":               "sleepwatch",
	"mqtt.accel_topic":             "sleepwatch/sensors/accelerometer",
	"mqtt.gyro_topic":              "sleepwatch/sensors/gyroscope",
	"mqtt.control_topic":           "sleepwatch/sensors/control",
	"mqtt.device_topic":            "sleepwatch/device",
	"mqtt.events_topic":            "sleepwatch/events",
	"mqtt.qos":                     1,
	"mqtt.connect_timeout_seconds": 10,

	"store.path":                   "sleepwatch.db",
	"store.retain_failed_sessions": true,

	"task.worker_count": 2,
	"task.queue_size":   16,
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
