// Package notifier delivers detected-file events to HTTP webhooks.
package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// SignatureHeader carries the HMAC-SHA256 of the body when a secret is configured
	SignatureHeader = "X-Webhook-Signature"
	// DeliveryHeader carries a unique id per delivery attempt
	DeliveryHeader = "X-Webhook-Delivery"
)

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookNotifier posts one JSON event per detected file. Delivery is best
// effort: failures are reported as warnings and never retried.
type WebhookNotifier struct {
	httpClient HTTPDoer
	url        string
	format     models.PayloadFormat
	secret     string
	headers    map[string]string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     zerolog.Logger
	now        func() time.Time
}

// NotifyAll delivers an event for each file to the configured webhook, in order
func (n *WebhookNotifier) NotifyAll(ctx context.Context, files []models.FilePathInfo) []models.DeliveryResult {
	return n.NotifyTo(ctx, n.url, files)
}

// NotifyTo delivers an event for each file to webhookURL, in order
func (n *WebhookNotifier) NotifyTo(ctx context.Context, webhookURL string, files []models.FilePathInfo) []models.DeliveryResult {
	results := make([]models.DeliveryResult, 0, len(files))
	for _, file := range files {
		result := n.Deliver(ctx, webhookURL, models.NewWebhookEvent(file, n.now()))
		if result.Err != nil {
			n.logger.Warn().
				Err(result.Err).
				Str("file", file.Path).
				Str("webhook_url", webhookURL).
				Msgf("Error sending event to %s", webhookURL)
		} else {
			n.logger.Info().
				Str("file", file.Path).
				Int("status_code", result.StatusCode).
				Msgf("File %q uploaded. Event sent to %s - %d", result.Event.File, webhookURL, result.StatusCode)
		}
		results = append(results, result)
	}
	return results
}

// Deliver performs exactly one POST of event to webhookURL
func (n *WebhookNotifier) Deliver(ctx context.Context, webhookURL string, event models.WebhookEvent) (result models.DeliveryResult) {
	result = models.DeliveryResult{
		DeliveryID: uuid.NewString(),
		Event:      event,
		WebhookURL: webhookURL,
	}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		result.DeliveredAt = n.now()
	}()

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			result.Err = &common.DeliveryError{URL: webhookURL, Wrapped: err}
			return result
		}
	}

	statusCode, err := n.post(ctx, webhookURL, result.DeliveryID, event)
	result.StatusCode = statusCode
	switch {
	case err != nil:
		result.Err = &common.DeliveryError{URL: webhookURL, Wrapped: err}
	case statusCode < 200 || statusCode >= 300:
		result.Err = &common.DeliveryError{URL: webhookURL, StatusCode: statusCode}
	}
	return result
}

func (n *WebhookNotifier) post(ctx context.Context, webhookURL, deliveryID string, event models.WebhookEvent) (int, error) {
	body, err := json.Marshal(event.Payload(n.format))
	if err != nil {
		return 0, common.WrapError(err, "failed to marshal payload")
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, common.WrapError(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DeliveryHeader, deliveryID)
	if n.secret != "" {
		req.Header.Set(SignatureHeader, GenerateSignature(body, n.secret))
	}
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, nil
}

// GenerateSignature returns the HMAC-SHA256 of payload as "sha256=<hex>"
func GenerateSignature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
