package config

import (
	"time"
)

// MonitorConfig defines configuration for the poll loop
type MonitorConfig struct {
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty" yaml:"poll_interval_seconds,omitempty" validate:"omitempty,min=1"`
	RetryBackoffSeconds int `json:"retry_backoff_seconds,omitempty" yaml:"retry_backoff_seconds,omitempty" validate:"omitempty,min=0"`
	MaxRetries          int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,min=1"`
	AttributeWorkers    int `json:"attribute_workers,omitempty" yaml:"attribute_workers,omitempty" validate:"omitempty,min=1,max=64"`
	MaxCycles           int `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty" validate:"omitempty,min=0"` // 0 means run indefinitely
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollIntervalSeconds: DefaultMonitorPollIntervalSecs,
		RetryBackoffSeconds: DefaultMonitorRetryBackoffSecs,
		MaxRetries:          DefaultMonitorMaxRetries,
		AttributeWorkers:    DefaultMonitorAttributeWorkers,
		MaxCycles:           0,
	}
}

// PollInterval returns the sleep between successful cycles
func (c MonitorConfig) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return DefaultMonitorPollIntervalSecs * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// RetryBackoff returns the fixed wait after a failed cycle
func (c MonitorConfig) RetryBackoff() time.Duration {
	if c.RetryBackoffSeconds < 0 {
		return DefaultMonitorRetryBackoffSecs * time.Second
	}
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}

// SweepConfig defines the one-shot windowed sweep used by scheduler-driven deployments
type SweepConfig struct {
	FrequencyMinutes int               `json:"frequency_minutes,omitempty" yaml:"frequency_minutes,omitempty" validate:"omitempty,min=1"`
	Folders          map[string]string `json:"folders,omitempty" yaml:"folders,omitempty"`
	Webhooks         map[string]string `json:"webhooks,omitempty" yaml:"webhooks,omitempty" validate:"omitempty,dive,url"`
}

// NewDefaultSweepConfig creates default sweep configuration.
// FrequencyMinutes stays unset: the look-back must match the external schedule.
func NewDefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Folders:  map[string]string{},
		Webhooks: map[string]string{},
	}
}

// Window returns the look-back window of a sweep
func (c SweepConfig) Window() time.Duration {
	return time.Duration(c.FrequencyMinutes) * time.Minute
}
