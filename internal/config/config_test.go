package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 10*time.Second, cfg.Monitor.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.Monitor.RetryBackoff())
	assert.Equal(t, 3, cfg.Monitor.MaxRetries)
	assert.Equal(t, "records", cfg.Webhook.PayloadFormat)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout())
	assert.Zero(t, cfg.Sweep.FrequencyMinutes)
	assert.False(t, cfg.Provider.Insecure)
	assert.False(t, cfg.History.Enabled)
	assert.False(t, cfg.Metrics.Enabled())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/onetrigger.yaml", zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "onetrigger.yaml")
	configData := `
provider:
  host: provider.example.org
  token: secret-token
  insecure: true
space:
  name: my-space
  folder: /input/
webhook:
  url: http://hooks.example.org/run
  payload_format: flat
  headers:
    X-Amz-Invocation-Type: Event
monitor:
  poll_interval_seconds: 30
  attribute_workers: 4
history:
  enabled: true
  sqlite_path: /tmp/history.db
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadConfig(configFile, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "provider.example.org", cfg.Provider.Host)
	assert.True(t, cfg.Provider.Insecure)
	assert.Equal(t, "my-space", cfg.Space.Identifier())
	assert.Equal(t, "input", cfg.Space.CleanFolder())
	assert.Equal(t, "flat", cfg.Webhook.PayloadFormat)
	assert.Equal(t, "Event", cfg.Webhook.Headers["X-Amz-Invocation-Type"])
	assert.Equal(t, 30*time.Second, cfg.Monitor.PollInterval())
	assert.Equal(t, 4, cfg.Monitor.AttributeWorkers)
	// untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Monitor.MaxRetries)
	assert.Equal(t, "zstd", cfg.Archive.Compression)
	assert.NoError(t, ValidateRun(cfg))
}

func TestLoadConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "onetrigger.json")
	configData := `{"provider": {"host": "p.example.org"}, "log": {"level": "debug"}}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadConfig(configFile, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "p.example.org", cfg.Provider.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(configFile, []byte("provider: [unclosed"), 0644))

	_, err := LoadConfig(configFile, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal YAML")
}

func TestApplyEnv(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Provider.Host = "from-file"

	err := ApplyEnv(cfg, []string{
		"ONEPROVIDER_HOST=env-host",
		"ONEDATA_ACCESS_TOKEN=tok",
		"ONEDATA_SPACE=space-a",
		"ONEDATA_SPACE_FOLDER=in",
		"ONETRIGGER_WEBHOOK=http://hook",
		"ONEPROVIDER_INSECURE=True",
		"ONETRIGGER_POLL_INTERVAL=5",
		"EXECUTION_FREQUENCY=15",
		"ONETRIGGER_FOLDER_IMG=images",
		"ONETRIGGER_WEBHOOK_IMG=http://img-hook",
		"UNRELATED=1",
		"MALFORMED",
	})
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Provider.Host)
	assert.Equal(t, "tok", cfg.Provider.Token)
	assert.Equal(t, "space-a", cfg.Space.Name)
	assert.Equal(t, "in", cfg.Space.Folder)
	assert.Equal(t, "http://hook", cfg.Webhook.URL)
	assert.True(t, cfg.Provider.Insecure)
	assert.Equal(t, 5*time.Second, cfg.Monitor.PollInterval())
	assert.Equal(t, 15*time.Minute, cfg.Sweep.Window())
	assert.Equal(t, map[string]string{"IMG": "images"}, cfg.Sweep.Folders)
	assert.Equal(t, "http://img-hook", cfg.SweepWebhook("IMG"))
	assert.Equal(t, "http://hook", cfg.SweepWebhook("OTHER"))
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := NewDefaultConfig()

	err := ApplyEnv(cfg, []string{
		"ONEPROVIDER_INSECURE=maybe",
		"ONETRIGGER_POLL_INTERVAL=-1",
	})
	require.Error(t, err)
	assert.True(t, common.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "ONEPROVIDER_INSECURE")
	assert.Contains(t, err.Error(), "ONETRIGGER_POLL_INTERVAL")
	assert.Equal(t, 10*time.Second, cfg.Monitor.PollInterval())
}

func TestValidateRun_ReportsEveryMissingSetting(t *testing.T) {
	err := ValidateRun(NewDefaultConfig())
	require.Error(t, err)

	var multi *common.MultiError
	require.ErrorAs(t, err, &multi)
	require.Len(t, multi.Errors, 4)

	expected := []string{
		`Oneprovider host is not provided. Please set it via "--oneprovider-host" argument or "ONEPROVIDER_HOST" environment variable`,
		`Onedata access token is not provided. Please set it via "--token" argument or "ONEDATA_ACCESS_TOKEN" environment variable`,
		`Onedata space is not provided. Please set it via "--space" argument or "ONEDATA_SPACE" environment variable`,
		`Webhook to send events is not provided. Please set it via "--webhook" argument or "ONETRIGGER_WEBHOOK" environment variable`,
	}
	for i, e := range multi.Errors {
		var cfgErr *common.ConfigurationError
		require.ErrorAs(t, e, &cfgErr)
		assert.Equal(t, expected[i], cfgErr.Reason+". "+cfgErr.Hint())
	}
}

func TestValidateListSpaces(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Provider.Host = "h"
	assert.Error(t, ValidateListSpaces(cfg))

	cfg.Provider.Token = "t"
	assert.NoError(t, ValidateListSpaces(cfg))
}

func TestValidateSweep(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Provider.Host = "h"
	cfg.Provider.Token = "t"
	cfg.Space.ID = "space-id"
	cfg.Sweep.Folders = map[string]string{"A": "in", "B": "other"}
	cfg.Sweep.Webhooks = map[string]string{"A": "http://a"}

	err := ValidateSweep(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Execution frequency is not provided")
	assert.Contains(t, err.Error(), "EXECUTION_FREQUENCY")
	assert.Contains(t, err.Error(), "ONETRIGGER_WEBHOOK_B")

	cfg.Sweep.FrequencyMinutes = 15
	err = ValidateSweep(cfg)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "Execution frequency")

	cfg.Webhook.URL = "http://default"
	assert.NoError(t, ValidateSweep(cfg))
}

func TestValidateConfig_TagRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "loglevel",
		},
		{
			name:    "invalid payload format",
			mutate:  func(c *Config) { c.Webhook.PayloadFormat = "xml" },
			wantErr: "payloadformat",
		},
		{
			name:    "invalid compression",
			mutate:  func(c *Config) { c.Archive.Compression = "lz4" },
			wantErr: "compression",
		},
		{
			name:    "invalid webhook url",
			mutate:  func(c *Config) { c.Webhook.URL = "not a url" },
			wantErr: "url",
		},
		{
			name:    "history enabled without path",
			mutate:  func(c *Config) { c.History.Enabled = true; c.History.SQLitePath = "" },
			wantErr: "required_if",
		},
		{
			name:   "valid metrics address",
			mutate: func(c *Config) { c.Metrics.ListenAddress = "localhost:9090" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, common.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
