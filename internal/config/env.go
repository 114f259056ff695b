package config

import (
	"strconv"
	"strings"

	"github.com/grycap/onetrigger/internal/common"
)

// ApplyEnv overlays environment settings on cfg. environ uses the os.Environ
// "KEY=value" form. Unset variables leave the current value untouched.
func ApplyEnv(cfg *Config, environ []string) error {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}

	setString := func(key string, dst *string) {
		if v, ok := env[key]; ok && v != "" {
			*dst = v
		}
	}

	setString(EnvProviderHost, &cfg.Provider.Host)
	setString(EnvAccessToken, &cfg.Provider.Token)
	setString(EnvSpace, &cfg.Space.Name)
	setString(EnvSpaceID, &cfg.Space.ID)
	setString(EnvSpaceFolder, &cfg.Space.Folder)
	setString(EnvWebhook, &cfg.Webhook.URL)
	setString(EnvLogLevel, &cfg.Log.Level)

	var ec common.ErrorCollector

	if v, ok := env[EnvInsecure]; ok && v != "" {
		insecure, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			ec.Add(&common.ConfigurationError{Section: "provider", Field: "insecure", Reason: "must be true or false, got " + strconv.Quote(v), EnvVar: EnvInsecure})
		} else {
			cfg.Provider.Insecure = insecure
		}
	}

	if v, ok := env[EnvPollInterval]; ok && v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			ec.Add(&common.ConfigurationError{Section: "monitor", Field: "poll_interval_seconds", Reason: "must be a positive number of seconds, got " + strconv.Quote(v), EnvVar: EnvPollInterval})
		} else {
			cfg.Monitor.PollIntervalSeconds = seconds
		}
	}

	if v, ok := env[EnvExecutionFrequency]; ok && v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			ec.Add(&common.ConfigurationError{Section: "sweep", Field: "frequency_minutes", Reason: "must be a positive number of minutes, got " + strconv.Quote(v), EnvVar: EnvExecutionFrequency})
		} else {
			cfg.Sweep.FrequencyMinutes = minutes
		}
	}

	for key, value := range env {
		switch {
		case strings.HasPrefix(key, EnvFolderPrefix) && len(key) > len(EnvFolderPrefix):
			if cfg.Sweep.Folders == nil {
				cfg.Sweep.Folders = map[string]string{}
			}
			cfg.Sweep.Folders[strings.TrimPrefix(key, EnvFolderPrefix)] = value
		case strings.HasPrefix(key, EnvWebhookPrefix) && len(key) > len(EnvWebhookPrefix):
			if cfg.Sweep.Webhooks == nil {
				cfg.Sweep.Webhooks = map[string]string{}
			}
			cfg.Sweep.Webhooks[strings.TrimPrefix(key, EnvWebhookPrefix)] = value
		}
	}

	return ec.Error()
}
