// Package config defines service configuration structures and loading
// hooks.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FilterVariant selects the rule set: early_kn, kn, early_sn or
	// microlensing.
	FilterVariant string `koanf:"filter_variant"`

	// CatalogPath points at the galaxy catalog CSV.
	CatalogPath string `koanf:"catalog_path"`

	// Kafka intake settings. An empty broker list disables the
	// stream consumer.
	KafkaBrokers string `koanf:"kafka_brokers"`
	KafkaTopic   string `koanf:"kafka_topic"`
	KafkaGroup   string `koanf:"kafka_group"`

	// Outbound webhook endpoints. An empty endpoint disables that
	// channel.
	PrimaryWebhook  string `koanf:"primary_webhook"`
	MangroveWebhook string `koanf:"mangrove_webhook"`
	AmateurWebhook  string `koanf:"amateur_webhook"`
	SurveyWebhook   string `koanf:"survey_webhook"`

	// SurveyFields is the allow-list for the restricted-survey
	// channel. Empty keeps the built-in default.
	SurveyFields []int64 `koanf:"survey_fields"`

	// WebhookTimeoutMS bounds each outbound webhook call.
	WebhookTimeoutMS int `koanf:"webhook_timeout_ms"`

	// QueueSize bounds the in-memory dispatch queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of dispatch workers.
	WorkerCount int `koanf:"worker_count"`

	// GuardSize bounds the notified-object guard. Zero disables it.
	GuardSize int `koanf:"guard_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		FilterVariant:    "early_kn",
		CatalogPath:      "data/mangrove_filtered.csv",
		KafkaTopic:       "ztf-alerts",
		KafkaGroup:       "knwatch",
		WebhookTimeoutMS: 5000,
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		GuardSize:        10_000,
	}
}
