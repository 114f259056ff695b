package config

// Config contains all configuration sections for the application.
// It is built once at startup and treated as immutable afterwards.
type Config struct {
	Provider ProviderConfig `json:"provider,omitempty" yaml:"provider,omitempty"`
	Space    SpaceConfig    `json:"space,omitempty" yaml:"space,omitempty"`
	Webhook  WebhookConfig  `json:"webhook,omitempty" yaml:"webhook,omitempty"`
	Monitor  MonitorConfig  `json:"monitor,omitempty" yaml:"monitor,omitempty"`
	Sweep    SweepConfig    `json:"sweep,omitempty" yaml:"sweep,omitempty"`
	Log      LogConfig      `json:"log,omitempty" yaml:"log,omitempty"`
	Metrics  MetricsConfig  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	History  HistoryConfig  `json:"history,omitempty" yaml:"history,omitempty"`
	Archive  ArchiveConfig  `json:"archive,omitempty" yaml:"archive,omitempty"`
}

// NewDefaultConfig creates a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Provider: NewDefaultProviderConfig(),
		Space:    SpaceConfig{},
		Webhook:  NewDefaultWebhookConfig(),
		Monitor:  NewDefaultMonitorConfig(),
		Sweep:    NewDefaultSweepConfig(),
		Log:      NewDefaultLogConfig(),
		Metrics:  MetricsConfig{},
		History:  NewDefaultHistoryConfig(),
		Archive:  NewDefaultArchiveConfig(),
	}
}
