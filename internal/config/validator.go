package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/grycap/onetrigger/internal/common"
)

// newValidator registers the custom rules used by the struct tags
func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("payloadformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "records", "flat":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("compression", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "zstd", "snappy", "gzip", "none":
			return true
		default:
			return false
		}
	})

	return validate
}

// ValidateConfig checks the struct-tag rules of every section
func ValidateConfig(cfg *Config) error {
	err := newValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}

	var ec common.ErrorCollector
	for _, e := range errs {
		// Namespace is Config.Section.Field
		parts := strings.Split(e.StructNamespace(), ".")
		section := ""
		if len(parts) > 2 {
			section = strings.ToLower(parts[1])
		}

		reason := fmt.Sprintf("rule '%s' failed", e.Tag())
		if e.Param() != "" {
			reason += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			reason += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		ec.Add(common.NewConfigurationError(section, e.Field(), reason))
	}
	return ec.Error()
}

// ValidateListSpaces checks the settings required to talk to the provider
func ValidateListSpaces(cfg *Config) error {
	var ec common.ErrorCollector
	addProviderErrors(&ec, cfg)
	return ec.Error()
}

// ValidateRun checks the settings required by the poll loop.
// Every missing setting is reported, not only the first one.
func ValidateRun(cfg *Config) error {
	var ec common.ErrorCollector
	addProviderErrors(&ec, cfg)
	if cfg.Space.Identifier() == "" {
		ec.Add(common.NewMissingSettingError("space", "name", "Onedata space", FlagSpace, EnvSpace))
	}
	if cfg.Webhook.URL == "" {
		ec.Add(common.NewMissingSettingError("webhook", "url", "Webhook to send events", FlagWebhook, EnvWebhook))
	}
	if ec.HasErrors() {
		return ec.Error()
	}
	return ValidateConfig(cfg)
}

// ValidateSweep checks the settings required by a one-shot sweep
func ValidateSweep(cfg *Config) error {
	var ec common.ErrorCollector
	addProviderErrors(&ec, cfg)
	if cfg.Space.Identifier() == "" {
		ec.Add(common.NewMissingSettingError("space", "name", "Onedata space", FlagSpace, EnvSpace))
	}
	if cfg.Sweep.FrequencyMinutes <= 0 {
		ec.Add(&common.ConfigurationError{Section: "sweep", Field: "frequency_minutes", Reason: "Execution frequency is not provided", EnvVar: EnvExecutionFrequency})
	}

	for _, key := range SortedKeys(cfg.Sweep.Folders) {
		if cfg.SweepWebhook(key) == "" {
			ec.Add(&common.ConfigurationError{
				Section: "sweep",
				Field:   "webhooks." + key,
				Reason:  fmt.Sprintf("Webhook for folder %q is not provided", key),
				EnvVar:  EnvWebhookPrefix + key,
			})
		}
	}
	if ec.HasErrors() {
		return ec.Error()
	}
	return ValidateConfig(cfg)
}

func addProviderErrors(ec *common.ErrorCollector, cfg *Config) {
	if cfg.Provider.Host == "" {
		ec.Add(common.NewMissingSettingError("provider", "host", "Oneprovider host", FlagProviderHost, EnvProviderHost))
	}
	if cfg.Provider.Token == "" {
		ec.Add(common.NewMissingSettingError("provider", "token", "Onedata access token", FlagToken, EnvAccessToken))
	}
}

// SweepWebhook returns the webhook for a sweep folder key, falling back to the default webhook
func (c *Config) SweepWebhook(key string) string {
	if url := c.Sweep.Webhooks[key]; url != "" {
		return url
	}
	return c.Webhook.URL
}

// SortedKeys returns map keys in a stable order
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
