package config

import "time"

// WebhookConfig defines where and how detected-file events are delivered
type WebhookConfig struct {
	URL            string            `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	PayloadFormat  string            `json:"payload_format,omitempty" yaml:"payload_format,omitempty" validate:"omitempty,payloadformat"`
	Secret         string            `json:"secret,omitempty" yaml:"secret,omitempty"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	RatePerSecond  float64           `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty" validate:"omitempty,min=0"`
	Burst          int               `json:"burst,omitempty" yaml:"burst,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultWebhookConfig creates default webhook configuration
func NewDefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		PayloadFormat:  DefaultWebhookPayloadFormat,
		Headers:        map[string]string{},
		TimeoutSeconds: DefaultWebhookTimeoutSecs,
		Burst:          DefaultWebhookBurst,
	}
}

// Timeout returns the per-delivery timeout
func (c WebhookConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultWebhookTimeoutSecs * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
