package notifier

import (
	"net/http"
	"strings"
	"time"

	"github.com/grycap/onetrigger/internal/config"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// NotifierBuilder provides a fluent interface for creating a WebhookNotifier
type NotifierBuilder struct {
	cfg        config.WebhookConfig
	httpClient HTTPDoer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewNotifierBuilder creates a builder with the default webhook configuration
func NewNotifierBuilder(logger zerolog.Logger) *NotifierBuilder {
	return &NotifierBuilder{
		cfg:    config.NewDefaultWebhookConfig(),
		logger: logger.With().Str("component", "WebhookNotifier").Logger(),
		now:    time.Now,
	}
}

// WithWebhookConfig sets the webhook section
func (b *NotifierBuilder) WithWebhookConfig(cfg config.WebhookConfig) *NotifierBuilder {
	b.cfg = cfg
	return b
}

// WithHTTPClient sets the client used for deliveries
func (b *NotifierBuilder) WithHTTPClient(client HTTPDoer) *NotifierBuilder {
	b.httpClient = client
	return b
}

// WithClock overrides the event timestamp source
func (b *NotifierBuilder) WithClock(now func() time.Time) *NotifierBuilder {
	b.now = now
	return b
}

// Build creates the notifier
func (b *NotifierBuilder) Build() *WebhookNotifier {
	client := b.httpClient
	if client == nil {
		b.logger.Debug().Msg("HTTP client is nil, using default HTTP client")
		client = &http.Client{Timeout: b.cfg.Timeout()}
	}

	format := models.PayloadFormat(strings.ToLower(b.cfg.PayloadFormat))
	if format != models.PayloadFormatFlat {
		format = models.PayloadFormatRecords
	}

	var limiter *rate.Limiter
	if b.cfg.RatePerSecond > 0 {
		burst := b.cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(b.cfg.RatePerSecond), burst)
	}

	headers := make(map[string]string, len(b.cfg.Headers))
	for k, v := range b.cfg.Headers {
		headers[k] = v
	}

	return &WebhookNotifier{
		httpClient: client,
		url:        b.cfg.URL,
		format:     format,
		secret:     b.cfg.Secret,
		headers:    headers,
		timeout:    b.cfg.Timeout(),
		limiter:    limiter,
		logger:     b.logger,
		now:        b.now,
	}
}
