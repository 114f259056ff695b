package config

import (
	"strings"
	"time"
)

// ProviderConfig defines how to reach the Oneprovider REST API
type ProviderConfig struct {
	Host           string `json:"host,omitempty" yaml:"host,omitempty"`
	Token          string `json:"token,omitempty" yaml:"token,omitempty"`
	Insecure       bool   `json:"insecure" yaml:"insecure"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultProviderConfig creates default provider configuration
func NewDefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Insecure:       false,
		TimeoutSeconds: DefaultProviderTimeoutSecs,
	}
}

// Timeout returns the per-request timeout
func (c ProviderConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultProviderTimeoutSecs * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SpaceConfig selects the watched space and optional folder inside it.
// Name takes precedence over ID when both are set.
type SpaceConfig struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Folder string `json:"folder,omitempty" yaml:"folder,omitempty"`
}

// Identifier returns the configured space name, or its ID when no name is set
func (c SpaceConfig) Identifier() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// CleanFolder returns the folder with surrounding slashes removed
func (c SpaceConfig) CleanFolder() string {
	return strings.Trim(c.Folder, "/")
}
