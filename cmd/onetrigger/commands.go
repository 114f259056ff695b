package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/grycap/onetrigger/internal/archive"
	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/config"
	"github.com/grycap/onetrigger/internal/history"
	"github.com/grycap/onetrigger/internal/httpclient"
	"github.com/grycap/onetrigger/internal/logger"
	"github.com/grycap/onetrigger/internal/metrics"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/grycap/onetrigger/internal/monitor"
	"github.com/grycap/onetrigger/internal/notifier"
	"github.com/grycap/onetrigger/internal/oneprovider"
	"github.com/grycap/onetrigger/internal/walker"
	"github.com/rs/zerolog"
)

// app is the state shared by every subcommand once configuration is valid
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	provider *oneprovider.Client
}

// setup parses flags, layers file, environment and flags, validates the
// result and connects a provider client. A nil app comes with the exit code.
func setup(name string, args, environ []string, stderr io.Writer, withSpace, withWebhook bool, validate func(*config.Config) error) (*app, int) {
	opts := &cliOptions{}
	fs := newFlagSet(name, opts, stderr, withSpace, withWebhook)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0
		}
		return nil, 2
	}

	bootLogger := newLogger(config.NewDefaultLogConfig(), stderr)

	cfg, err := config.LoadConfig(opts.configPath, bootLogger)
	if err != nil {
		bootLogger.Error().Err(err).Msg("Could not load configuration")
		return nil, 1
	}
	envErr := config.ApplyEnv(cfg, environ)
	opts.applyTo(cfg)

	log := newLogger(cfg.Log, stderr)
	if envErr != nil {
		reportErrors(log, envErr)
		return nil, 1
	}
	if err := validate(cfg); err != nil {
		reportErrors(log, err)
		return nil, 1
	}

	httpClient, err := httpclient.NewHTTPClientBuilder(log).
		WithTimeout(cfg.Provider.Timeout()).
		WithInsecureSkipVerify(cfg.Provider.Insecure).
		Build()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create HTTP client")
		return nil, 1
	}

	return &app{
		cfg:      cfg,
		logger:   log,
		provider: oneprovider.NewClient(cfg.Provider.Host, cfg.Provider.Token, cfg.Provider.Timeout(), httpClient, log),
	}, 0
}

func newLogger(cfg config.LogConfig, stderr io.Writer) zerolog.Logger {
	log, err := logger.NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(stderr).Build()
	if err != nil {
		fallback := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger()
		fallback.Warn().Err(err).Msg("Invalid log configuration, using console defaults")
		return fallback
	}
	return log
}

// reportErrors logs every configuration problem on its own line
func reportErrors(log zerolog.Logger, err error) {
	errs := []error{err}
	var multi *common.MultiError
	if errors.As(err, &multi) {
		errs = multi.Errors
	}
	for _, e := range errs {
		log.Error().Msg(e.Error())
	}
}

// providerFailure logs a provider error the way users expect and returns the exit code
func (a *app) providerFailure(ctx context.Context, err error, space string) int {
	switch {
	case ctx.Err() != nil:
		a.logger.Info().Msg("Closing OneTrigger... Bye!")
		return 0
	case errors.Is(err, common.ErrInvalidToken):
		a.logger.Error().Msg("Invalid token")
	case common.IsNotFoundError(err) && space != "":
		a.logger.Error().Msgf("The space %q does not exist. Please check the available spaces with the \"list-spaces\" subcommand.", space)
	default:
		a.logger.Error().Err(err).Msg("Error connecting to provider host")
	}
	return 1
}

func runCommand(ctx context.Context, args, environ []string, stderr io.Writer) int {
	a, code := setup("run", args, environ, stderr, true, true, config.ValidateRun)
	if a == nil {
		return code
	}
	cfg := a.cfg

	space, err := a.provider.ResolveSpace(ctx, cfg.Space.Identifier())
	if err != nil {
		return a.providerFailure(ctx, err, cfg.Space.Identifier())
	}

	roots, err := monitor.ResolveRoots(ctx, a.provider, space.Name, cfg.Space.CleanFolder(), a.logger)
	if err != nil {
		return a.providerFailure(ctx, err, "")
	}

	observers, cleanup, err := a.buildObservers(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to initialize cycle observers")
		return 1
	}
	defer cleanup()

	webhookClient, err := httpclient.NewHTTPClientBuilder(a.logger).
		WithTimeout(cfg.Webhook.Timeout()).
		Build()
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to create webhook HTTP client")
		return 1
	}
	webhooks := notifier.NewNotifierBuilder(a.logger).
		WithWebhookConfig(cfg.Webhook).
		WithHTTPClient(webhookClient).
		Build()

	folderMsg := ""
	if folder := cfg.Space.CleanFolder(); folder != "" && roots[0] != space.Name {
		folderMsg = fmt.Sprintf(". Listening events on \"/%s/%s/\" folder", space.Name, folder)
	}
	a.logger.Info().Msgf("Subscribing to file events in space %q from provider %q...%s", space.Name, cfg.Provider.Host, folderMsg)

	tree := walker.New(a.provider, a.logger, walker.WithAttributeWorkers(cfg.Monitor.AttributeWorkers))
	supervisor := monitor.NewSupervisor(tree, webhooks, monitor.NewSupervisorConfig(cfg.Monitor), a.logger,
		monitor.WithObservers(observers...))

	if err := supervisor.Run(ctx, roots); err != nil {
		if !errors.Is(err, common.ErrRetriesExhausted) {
			a.logger.Error().Err(err).Msg("Poll loop failed")
		}
		return 1
	}

	a.logger.Info().Msg("Closing OneTrigger... Bye!")
	return 0
}

// buildObservers wires the optional metrics, history and archive sinks
func (a *app) buildObservers(ctx context.Context) ([]monitor.Observer, func(), error) {
	var observers []monitor.Observer
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if a.cfg.Metrics.Enabled() {
		recorder := metrics.NewRecorder(a.logger)
		observers = append(observers, recorder)
		go func() {
			if err := recorder.Serve(ctx, a.cfg.Metrics.ListenAddress); err != nil {
				a.logger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	if a.cfg.History.Enabled {
		store, err := history.NewStore(a.cfg.History.SQLitePath, a.logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		observers = append(observers, store)
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to close history database")
			}
		})
	}

	if a.cfg.Archive.Enabled {
		events, err := archive.NewParquetArchive(a.cfg.Archive, a.logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		observers = append(observers, events)
	}

	return observers, cleanup, nil
}

func listSpacesCommand(ctx context.Context, args, environ []string, stdout, stderr io.Writer) int {
	a, code := setup("list-spaces", args, environ, stderr, false, false, config.ValidateListSpaces)
	if a == nil {
		return code
	}

	spaces, err := a.provider.ListSpaces(ctx)
	if err != nil {
		return a.providerFailure(ctx, err, "")
	}
	if err := printSpaces(stdout, spaces); err != nil {
		a.logger.Error().Err(err).Msg("Failed to print spaces")
		return 1
	}
	return 0
}

func printSpaces(w io.Writer, spaces []models.Space) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tSpace ID")
	fmt.Fprintf(tw, "%s\t%s\n", strings.Repeat("-", 4), strings.Repeat("-", 8))
	for _, s := range spaces {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.SpaceID)
	}
	return tw.Flush()
}

type sweepError struct {
	Error string `json:"error"`
}

func sweepCommand(ctx context.Context, args, environ []string, stdout, stderr io.Writer) int {
	a, code := setup("sweep", args, environ, stderr, true, true, config.ValidateSweep)
	if a == nil {
		if code == 1 {
			writeJSON(stdout, sweepError{Error: "invalid configuration"})
		}
		return code
	}
	cfg := a.cfg

	fail := func(err error) int {
		a.logger.Error().Err(err).Msg("Sweep failed")
		writeJSON(stdout, sweepError{Error: err.Error()})
		return 1
	}

	space, err := a.provider.ResolveSpace(ctx, cfg.Space.Identifier())
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		return fail(errors.New("Invalid token"))
	case common.IsNotFoundError(err):
		return fail(fmt.Errorf("The space %q does not exist.", cfg.Space.Identifier()))
	case err != nil:
		return fail(common.WrapError(err, "Error connecting to provider host"))
	}

	webhookClient, err := httpclient.NewHTTPClientBuilder(a.logger).
		WithTimeout(cfg.Webhook.Timeout()).
		// asynchronous invocation for serverless webhooks
		WithHeader("X-Amz-Invocation-Type", "Event").
		Build()
	if err != nil {
		return fail(err)
	}
	webhooks := notifier.NewNotifierBuilder(a.logger).
		WithWebhookConfig(cfg.Webhook).
		WithHTTPClient(webhookClient).
		Build()

	sweeper := monitor.NewSweeper(a.provider, webhooks, cfg.Monitor.AttributeWorkers, a.logger)
	result, err := sweeper.Sweep(ctx, space.Name, monitor.SweepFoldersFromConfig(cfg), cfg.Sweep.Window())
	if err != nil {
		return fail(err)
	}

	writeJSON(stdout, result)
	return 0
}

func writeJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
