package logger

import (
	"strings"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/config"
	"github.com/rs/zerolog"
)

// Format selects how log lines are rendered
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
	FormatText
)

// options is the resolved output setup of a logger
type options struct {
	level      zerolog.Level
	format     Format
	filePath   string
	maxSizeMB  int
	maxBackups int
}

// optionsFrom resolves the log section, falling back to the config defaults
// for values left empty
func optionsFrom(cfg config.LogConfig) options {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	opts := options{
		level:      level,
		format:     ParseFormat(cfg.Format),
		filePath:   cfg.File,
		maxSizeMB:  cfg.MaxSizeMB,
		maxBackups: cfg.MaxBackups,
	}
	if opts.maxSizeMB <= 0 {
		opts.maxSizeMB = config.DefaultMaxLogSizeMB
	}
	if opts.maxBackups < 0 {
		opts.maxBackups = config.DefaultMaxLogBackups
	}
	return opts
}

// ParseLevel parses a level name; an empty name means info
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.InfoLevel, common.WrapError(err, "invalid log level")
	}
	return level, nil
}

// ParseFormat maps "json" and "text"; anything else renders for a terminal
func ParseFormat(name string) Format {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	}
	return FormatConsole
}
