package config

// LogConfig defines where and how log lines are written.
// An empty File keeps logging on the console only.
type LogConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,loglevel"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,logformat"`
	File       string `json:"file,omitempty" yaml:"file,omitempty" validate:"omitempty,filepath"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" validate:"omitempty,min=1"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty" validate:"omitempty,min=0"`
}

func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      DefaultLogLevel,
		Format:     DefaultLogFormat,
		MaxSizeMB:  DefaultMaxLogSizeMB,
		MaxBackups: DefaultMaxLogBackups,
	}
}
