package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/config"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/grycap/onetrigger/internal/oneprovider"
	"github.com/grycap/onetrigger/internal/walker"
	"github.com/rs/zerolog"
)

// TargetedNotifier delivers events to an explicit webhook URL
type TargetedNotifier interface {
	NotifyTo(ctx context.Context, webhookURL string, files []models.FilePathInfo) []models.DeliveryResult
}

// SweepResult is the JSON summary printed by a one-shot sweep
type SweepResult struct {
	NewFiles []string `json:"new_files,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SweepFolder is one configured folder and the webhook its events go to
type SweepFolder struct {
	Key     string
	Folder  string
	Webhook string
}

// SweepFoldersFromConfig lists the configured sweep folders in key order
func SweepFoldersFromConfig(cfg *config.Config) []SweepFolder {
	keys := config.SortedKeys(cfg.Sweep.Folders)
	folders := make([]SweepFolder, 0, len(keys))
	for _, key := range keys {
		folders = append(folders, SweepFolder{
			Key:     key,
			Folder:  cfg.Sweep.Folders[key],
			Webhook: cfg.SweepWebhook(key),
		})
	}
	return folders
}

// Sweeper performs a single windowed pass over a set of folders. It keeps no
// state between runs; the mtime window stands in for the KnownSet.
type Sweeper struct {
	accessor oneprovider.Accessor
	notifier TargetedNotifier
	logger   zerolog.Logger
	workers  int
	now      func() time.Time
}

// NewSweeper creates a sweeper
func NewSweeper(accessor oneprovider.Accessor, notifier TargetedNotifier, attributeWorkers int, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		accessor: accessor,
		notifier: notifier,
		logger:   logger.With().Str("component", "Sweeper").Logger(),
		workers:  attributeWorkers,
		now:      time.Now,
	}
}

// Sweep notifies every regular file modified within window in each folder of space.
// Missing folders and failed deliveries become warnings; any other provider
// error aborts the sweep.
func (s *Sweeper) Sweep(ctx context.Context, space string, folders []SweepFolder, window time.Duration) (SweepResult, error) {
	var result SweepResult
	threshold := s.now().Add(-window)

	s.logger.Info().
		Str("space", space).
		Int("folders", len(folders)).
		Time("threshold", threshold).
		Msg("Starting sweep")

	w := walker.New(s.accessor, s.logger, walker.WithModifiedAfter(threshold), walker.WithAttributeWorkers(s.workers))

	for _, f := range folders {
		folder := strings.Trim(f.Folder, "/")
		root := space + "/" + folder

		attrs, err := s.accessor.GetAttributes(ctx, root)
		if err != nil {
			if common.IsNotFoundError(err) {
				result.warn(s.logger, fmt.Sprintf("The folder %q does not exist. Ignoring it.", folder))
				continue
			}
			return result, common.WrapErrorf(err, "failed to check folder %q", folder)
		}
		if !attrs.IsDirectory() || !attrs.ModifiedAt.After(threshold) {
			s.logger.Debug().Str("folder", folder).Msg("Folder unchanged within window, skipping")
			continue
		}

		files, err := w.Walk(ctx, []string{root})
		if err != nil {
			return result, common.WrapErrorf(err, "failed to walk folder %q", folder)
		}
		if len(files) == 0 {
			continue
		}

		for _, file := range files {
			result.NewFiles = append(result.NewFiles, file.Path)
		}
		for _, delivery := range s.notifier.NotifyTo(ctx, f.Webhook, files) {
			if delivery.Err != nil {
				result.warn(s.logger, fmt.Sprintf("Error sending event to %s - %v", delivery.WebhookURL, delivery.Err))
			}
		}
	}

	s.logger.Info().
		Int("new_files", len(result.NewFiles)).
		Int("warnings", len(result.Warnings)).
		Msg("Sweep completed")
	return result, nil
}

func (r *SweepResult) warn(logger zerolog.Logger, msg string) {
	logger.Warn().Msg(msg)
	r.Warnings = append(r.Warnings, msg)
}
