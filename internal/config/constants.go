package config

const (
	// Provider Defaults
	DefaultProviderTimeoutSecs = 10

	// Webhook Defaults
	DefaultWebhookPayloadFormat = "records"
	DefaultWebhookTimeoutSecs   = 10
	DefaultWebhookBurst         = 1

	// Monitor Defaults
	DefaultMonitorPollIntervalSecs = 10
	DefaultMonitorRetryBackoffSecs = 10
	DefaultMonitorMaxRetries       = 3
	DefaultMonitorAttributeWorkers = 1

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// History Defaults
	DefaultHistorySQLitePath = "data/onetrigger_history.db"

	// Archive Defaults
	DefaultArchiveBasePath    = "data/events"
	DefaultArchiveCompression = "zstd"
)

// Environment variables understood by ApplyEnv
const (
	EnvProviderHost       = "ONEPROVIDER_HOST"
	EnvAccessToken        = "ONEDATA_ACCESS_TOKEN"
	EnvSpace              = "ONEDATA_SPACE"
	EnvSpaceID            = "ONEDATA_SPACE_ID"
	EnvSpaceFolder        = "ONEDATA_SPACE_FOLDER"
	EnvWebhook            = "ONETRIGGER_WEBHOOK"
	EnvInsecure           = "ONEPROVIDER_INSECURE"
	EnvPollInterval       = "ONETRIGGER_POLL_INTERVAL"
	EnvLogLevel           = "ONETRIGGER_LOG_LEVEL"
	EnvConfigPath         = "ONETRIGGER_CONFIG_PATH"
	EnvExecutionFrequency = "EXECUTION_FREQUENCY"
	EnvFolderPrefix       = "ONETRIGGER_FOLDER_"
	EnvWebhookPrefix      = "ONETRIGGER_WEBHOOK_"
)

// Command-line flags naming the same settings, used in diagnostics
const (
	FlagProviderHost = "--oneprovider-host"
	FlagToken        = "--token"
	FlagSpace        = "--space"
	FlagWebhook      = "--webhook"
	FlagFolder       = "--folder"
)
