package config

// HistoryConfig enables the SQLite run history
type HistoryConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" validate:"required_if=Enabled true"`
}

// NewDefaultHistoryConfig creates default history configuration
func NewDefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled:    false,
		SQLitePath: DefaultHistorySQLitePath,
	}
}

// ArchiveConfig enables the Parquet archive of detected events
type ArchiveConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	BasePath    string `json:"base_path,omitempty" yaml:"base_path,omitempty" validate:"required_if=Enabled true"`
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty" validate:"omitempty,compression"`
}

// NewDefaultArchiveConfig creates default archive configuration
func NewDefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Enabled:     false,
		BasePath:    DefaultArchiveBasePath,
		Compression: DefaultArchiveCompression,
	}
}

// MetricsConfig exposes Prometheus metrics when ListenAddress is set
type MetricsConfig struct {
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty" validate:"omitempty,hostname_port"`
}

// Enabled reports whether the metrics endpoint should be served
func (c MetricsConfig) Enabled() bool {
	return c.ListenAddress != ""
}
