package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Tracking TrackingConfig `mapstructure:"tracking" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	MQTT     MQTTConfig     `mapstructure:"mqtt" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// TrackingConfig holds the sleep window and sampling cadence.
type TrackingConfig struct {
	BedTime  string `mapstructure:"bed_time" validate:"required,datetime=15:04"`
	WakeTime string `mapstructure:"wake_time" validate:"required,datetime=15:04"`
	Enabled  bool   `mapstructure:"enabled"`
	// Timezone is an IANA name; empty means the host's local zone.
	Timezone                string `mapstructure:"timezone" validate:"omitempty,timezone"`
	SampleIntervalMS        int    `mapstructure:"sample_interval_ms" validate:"required,gt=0"`
	EvaluateIntervalSeconds int    `mapstructure:"evaluate_interval_seconds" validate:"required,gt=0"`
	InboxSize               int    `mapstructure:"inbox_size" validate:"required,gt=0"`
}

// SampleInterval returns the sensor cadence.
func (c TrackingConfig) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}

// EvaluateInterval returns how often the window is re-checked.
func (c TrackingConfig) EvaluateInterval() time.Duration {
	return time.Duration(c.EvaluateIntervalSeconds) * time.Second
}

// Location resolves Timezone.
func (c TrackingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// GeminiAPIKey is optional; without it sleep analysis is disabled.
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"omitempty,file"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelayMS       int    `mapstructure:"retry_delay_ms" validate:"required,gt=0"`
}

// Timeout bounds one analysis request including retries.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay is the base delay between retries.
func (c LLMConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// MQTTConfig configures the broker carrying sensor and device-state feeds.
type MQTTConfig struct {
	Broker                string `mapstructure:"broker" validate:"required,url"`
	ClientID              string `mapstructure:"client_id" validate:"required"`
	AccelTopic            string `mapstructure:"accel_topic" validate:"required"`
	GyroTopic             string `mapstructure:"gyro_topic" validate:"required"`
	ControlTopic          string `mapstructure:"control_topic" validate:"required"`
	DeviceTopic           string `mapstructure:"device_topic" validate:"required"`
	EventsTopic           string `mapstructure:"events_topic" validate:"required"`
	QoS                   int    `mapstructure:"qos" validate:"gte=0,lte=2"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds" validate:"required,gt=0"`
}

// ConnectTimeout bounds broker connect and subscribe round trips.
func (c MQTTConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// StoreConfig configures the report database.
type StoreConfig struct {
	Path                 string `mapstructure:"path" validate:"required"`
	RetainFailedSessions bool   `mapstructure:"retain_failed_sessions"`
}

// TaskConfig sizes the background analysis runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"required,gt=0"`
}
