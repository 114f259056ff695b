package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/config"
	"github.com/rs/zerolog"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	opts    options
	console io.Writer
}

// NewLoggerBuilder creates a builder for a console logger with default settings
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		opts:    optionsFrom(config.NewDefaultLogConfig()),
		console: os.Stderr,
	}
}

// WithConfig applies the application log section
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	lb.opts = optionsFrom(cfg)
	return lb
}

// WithConsoleOutput redirects console output, stderr by default
func (lb *LoggerBuilder) WithConsoleOutput(w io.Writer) *LoggerBuilder {
	lb.console = w
	return lb
}

// Build creates the logger instance. Console output is always on; a log
// file is added when one is configured.
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if lb.console == nil {
		return zerolog.Nop(), common.NewError("no console output configured")
	}

	writers := []io.Writer{formatWriter(lb.console, lb.opts.format, false)}
	if lb.opts.filePath != "" {
		file, err := newFileWriter(lb.opts)
		if err != nil {
			return zerolog.Nop(), common.NewConfigurationError("log", "file", err.Error())
		}
		writers = append(writers, file)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.opts.level).
		With().
		Timestamp().
		Logger()

	// Route libraries using the standard logger through zerolog
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}
