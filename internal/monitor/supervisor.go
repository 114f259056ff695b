// Package monitor drives the resilient poll loop that turns remote tree
// changes into webhook deliveries.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/config"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
)

// State of the poll loop
type State int

const (
	StateBootstrapping State = iota
	StateSteady
	StateRetrying
	StateTerminated
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateSteady:
		return "steady"
	case StateRetrying:
		return "retrying"
	case StateTerminated:
		return "terminated"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TreeWalker lists every regular file below roots
type TreeWalker interface {
	Walk(ctx context.Context, roots []string) ([]models.FilePathInfo, error)
}

// Notifier delivers one event per file
type Notifier interface {
	NotifyAll(ctx context.Context, files []models.FilePathInfo) []models.DeliveryResult
}

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SupervisorConfig holds the loop timing and retry budget
type SupervisorConfig struct {
	PollInterval time.Duration
	RetryBackoff time.Duration
	MaxRetries   int
	MaxCycles    int // 0 means run until cancelled
}

// NewSupervisorConfig derives loop settings from the monitor section
func NewSupervisorConfig(cfg config.MonitorConfig) SupervisorConfig {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = config.DefaultMonitorMaxRetries
	}
	return SupervisorConfig{
		PollInterval: cfg.PollInterval(),
		RetryBackoff: cfg.RetryBackoff(),
		MaxRetries:   maxRetries,
		MaxCycles:    cfg.MaxCycles,
	}
}

// Supervisor owns the KnownSet and runs walk, reconcile and notify cycles.
// It is the only place deciding whether a failure is retried or fatal.
// A Supervisor runs a single loop and is not safe for concurrent use.
type Supervisor struct {
	walker    TreeWalker
	notifier  Notifier
	observers Observers
	cfg       SupervisorConfig
	logger    zerolog.Logger
	sleep     SleepFunc
	now       func() time.Time
	runID     string

	known     models.KnownSet
	bootstrap bool
	state     State
	attempts  int
	cycle     int
	completed int
}

// Option configures a Supervisor
type Option func(*Supervisor)

// WithObservers registers cycle observers
func WithObservers(observers ...Observer) Option {
	return func(s *Supervisor) {
		s.observers = append(s.observers, observers...)
	}
}

// WithSleep replaces the timer used between cycles and retries
func WithSleep(sleep SleepFunc) Option {
	return func(s *Supervisor) {
		s.sleep = sleep
	}
}

// WithClock replaces the time source used in reports
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		s.now = now
	}
}

// WithRunID sets the identifier attached to reports
func WithRunID(runID string) Option {
	return func(s *Supervisor) {
		s.runID = runID
	}
}

// NewSupervisor creates a supervisor in the Bootstrapping state with an empty KnownSet
func NewSupervisor(walker TreeWalker, notifier Notifier, cfg SupervisorConfig, logger zerolog.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		walker:    walker,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger.With().Str("component", "Supervisor").Logger(),
		sleep:     Sleep,
		now:       time.Now,
		runID:     uuid.NewString(),
		known:     models.KnownSet{},
		bootstrap: true,
		state:     StateBootstrapping,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxRetries <= 0 {
		s.cfg.MaxRetries = config.DefaultMonitorMaxRetries
	}
	return s
}

// State returns the current loop state
func (s *Supervisor) State() State {
	return s.state
}

// Attempts returns the number of consecutive failed attempts
func (s *Supervisor) Attempts() int {
	return s.attempts
}

// Known returns a copy of the current KnownSet
func (s *Supervisor) Known() models.KnownSet {
	out := make(models.KnownSet, len(s.known))
	for id := range s.known {
		out[id] = struct{}{}
	}
	return out
}

// RunID returns the identifier attached to reports
func (s *Supervisor) RunID() string {
	return s.runID
}

// Run executes cycles until ctx is cancelled, MaxCycles successful cycles
// have completed, or the retry budget is exhausted. Cancellation is a graceful
// stop and returns nil; exhaustion returns an error wrapping
// common.ErrRetriesExhausted.
func (s *Supervisor) Run(ctx context.Context, roots []string) error {
	if len(roots) == 0 {
		return common.NewConfigurationError("monitor", "roots", "at least one root path is required")
	}

	s.logger.Info().
		Strs("roots", roots).
		Dur("poll_interval", s.cfg.PollInterval).
		Int("max_retries", s.cfg.MaxRetries).
		Str("run_id", s.runID).
		Msg("Starting poll loop")

	for {
		err := s.runCycle(ctx, roots)
		if err == nil {
			s.attempts = 0
			s.state = StateSteady
			s.completed++

			if s.cfg.MaxCycles > 0 && s.completed >= s.cfg.MaxCycles {
				s.logger.Info().Int("cycles", s.completed).Msg("Maximum number of cycles reached, stopping")
				s.state = StateStopped
				return nil
			}
			if s.sleep(ctx, s.cfg.PollInterval) != nil {
				return s.stop()
			}
			continue
		}

		if ctx.Err() != nil {
			return s.stop()
		}

		s.attempts++
		if s.attempts >= s.cfg.MaxRetries {
			s.state = StateTerminated
			s.logger.Error().Err(err).Int("attempts", s.attempts).Msg("Connection error")
			return fmt.Errorf("%w after %d attempts: %w", common.ErrRetriesExhausted, s.attempts, err)
		}

		s.state = StateRetrying
		s.logger.Warn().
			Err(err).
			Int("attempt", s.attempts).
			Int("max_retries", s.cfg.MaxRetries).
			Dur("backoff", s.cfg.RetryBackoff).
			Msg("Connection lost. Retrying...")

		if s.sleep(ctx, s.cfg.RetryBackoff) != nil {
			return s.stop()
		}
	}
}

func (s *Supervisor) stop() error {
	s.state = StateStopped
	s.logger.Info().Msg("Poll loop stopped")
	return nil
}

// runCycle performs one walk, reconcile and notify pass. On failure KnownSet
// and the bootstrap flag are left untouched so the same cycle type is retried.
func (s *Supervisor) runCycle(ctx context.Context, roots []string) error {
	s.cycle++
	started := s.now()
	bootstrap := s.bootstrap

	files, err := s.walker.Walk(ctx, roots)
	if err != nil {
		// an interrupted walk is a shutdown, not a failed cycle
		if ctx.Err() != nil {
			return err
		}
		s.observers.CycleFailed(models.CycleFailure{
			RunID:     s.runID,
			Cycle:     s.cycle,
			Bootstrap: bootstrap,
			Attempt:   s.attempts + 1,
			StartedAt: started,
			FailedAt:  s.now(),
			Err:       err,
		})
		return err
	}

	known, appeared := Reconcile(files, s.known, bootstrap)
	s.known = known
	s.bootstrap = false

	if s.attempts > 0 {
		s.logger.Info().Int("failed_attempts", s.attempts).Msg("Connection recovered")
	}

	var deliveries []models.DeliveryResult
	if len(appeared) > 0 {
		deliveries = s.notifier.NotifyAll(ctx, appeared)
	}

	report := models.CycleReport{
		RunID:      s.runID,
		Cycle:      s.cycle,
		Bootstrap:  bootstrap,
		StartedAt:  started,
		FinishedAt: s.now(),
		FilesSeen:  known.Len(),
		NewFiles:   appeared,
		Deliveries: deliveries,
	}
	s.observers.CycleCompleted(report)

	event := s.logger.Debug()
	if bootstrap {
		event = s.logger.Info()
	}
	event.
		Int("cycle", s.cycle).
		Bool("bootstrap", bootstrap).
		Int("files", known.Len()).
		Int("new_files", len(appeared)).
		Dur("duration", report.Duration()).
		Msg("Cycle completed")
	return nil
}

// ResolveRoots returns the walk roots for space and an optional folder. A
// folder that does not exist degrades the scope to the space root; any other
// error is returned.
func ResolveRoots(ctx context.Context, checker FolderChecker, space, folder string, logger zerolog.Logger) ([]string, error) {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return []string{space}, nil
	}

	err := checker.CheckFolder(ctx, space, folder)
	switch {
	case err == nil:
		return []string{space + "/" + folder}, nil
	case common.IsNotFoundError(err):
		logger.Warn().Str("space", space).Str("folder", folder).
			Msgf("The folder %q does not exist. Listening events on space folder", folder)
		return []string{space}, nil
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		return nil, common.WrapErrorf(err, "failed to check folder %q", folder)
	}
}

// FolderChecker verifies a folder inside a space
type FolderChecker interface {
	CheckFolder(ctx context.Context, space, folder string) error
}
