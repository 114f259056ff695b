package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newFileWriter opens a size-rotated log file. Files never get colors.
func newFileWriter(opts options) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.filePath), 0755); err != nil {
		return nil, err
	}

	rotating := &lumberjack.Logger{
		Filename:   opts.filePath,
		MaxSize:    opts.maxSizeMB,
		MaxBackups: opts.maxBackups,
		LocalTime:  true,
	}
	return formatWriter(rotating, opts.format, true), nil
}

func formatWriter(out io.Writer, format Format, noColor bool) io.Writer {
	switch format {
	case FormatJSON:
		return out
	case FormatText:
		noColor = true
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
}
