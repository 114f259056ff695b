// Package archive appends detected file events to Parquet files for offline analysis.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/config"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// ParquetArchive writes one Parquet file per cycle that detected new files
type ParquetArchive struct {
	basePath    string
	compression string
	logger      zerolog.Logger
}

// NewParquetArchive creates an archive rooted at cfg.BasePath
func NewParquetArchive(cfg config.ArchiveConfig, logger zerolog.Logger) (*ParquetArchive, error) {
	if cfg.BasePath == "" {
		return nil, common.NewConfigurationError("archive", "base_path", "base path is not configured")
	}
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, common.WrapError(err, "failed to create archive directory: "+cfg.BasePath)
	}
	return &ParquetArchive{
		basePath:    cfg.BasePath,
		compression: cfg.Compression,
		logger:      logger.With().Str("component", "ParquetArchive").Logger(),
	}, nil
}

// FilePath returns the archive file of a cycle
func (a *ParquetArchive) FilePath(runID string, cycle int) string {
	return filepath.Join(a.basePath, fmt.Sprintf("events-%s-%06d.parquet", runID, cycle))
}

// WriteReport archives the new files of a cycle and returns the written path.
// Reports without new files produce no file and an empty path.
func (a *ParquetArchive) WriteReport(report models.CycleReport) (string, error) {
	rows := TransformReport(report)
	if len(rows) == 0 {
		return "", nil
	}

	path := a.FilePath(report.RunID, report.Cycle)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("opening archive file '%s': %w", path, err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[models.ParquetDetectedEvent](file, a.compressionOption())
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("writing %d rows to '%s': %w", len(rows), path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing Parquet writer: %w", err)
	}

	a.logger.Debug().Str("file_path", path).Int("records_written", len(rows)).Msg("Archived detected events")
	return path, nil
}

// CycleCompleted archives the cycle; failures are logged only
func (a *ParquetArchive) CycleCompleted(report models.CycleReport) {
	if _, err := a.WriteReport(report); err != nil {
		a.logger.Error().Err(err).Str("run_id", report.RunID).Int("cycle", report.Cycle).Msg("Failed to archive cycle")
	}
}

// CycleFailed is a no-op; failed cycles detect nothing
func (a *ParquetArchive) CycleFailed(models.CycleFailure) {}

func (a *ParquetArchive) compressionOption() parquet.WriterOption {
	switch strings.ToLower(a.compression) {
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "zstd", "":
		return parquet.Compression(&parquet.Zstd)
	case "none", "uncompressed":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		a.logger.Warn().Str("codec", a.compression).Msg("Unsupported compression codec, defaulting to Uncompressed")
		return parquet.Compression(&parquet.Uncompressed)
	}
}

// ReadAll reads every archived event from a single file
func ReadAll(path string) ([]models.ParquetDetectedEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}
	defer file.Close()

	reader := parquet.NewGenericReader[models.ParquetDetectedEvent](file)
	defer reader.Close()

	var events []models.ParquetDetectedEvent
	buf := make([]models.ParquetDetectedEvent, 64)
	for {
		n, err := reader.Read(buf)
		events = append(events, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
		}
	}
	return events, nil
}
