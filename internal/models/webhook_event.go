package models

import "time"

// EventSource is the source tag carried by every emitted event
const EventSource = "OneTrigger"

// EventTimeLayout renders UTC timestamps with microsecond precision and no zone suffix
const EventTimeLayout = "2006-01-02T15:04:05.000000"

// PayloadFormat selects the JSON shape posted to the webhook
type PayloadFormat string

const (
	// PayloadFormatRecords is the S3-like {"Key": ..., "Records": [...]} envelope
	PayloadFormatRecords PayloadFormat = "records"
	// PayloadFormatFlat is a single flat object per file
	PayloadFormatFlat PayloadFormat = "flat"
)

// WebhookEvent describes one newly detected file
type WebhookEvent struct {
	ID          FileIdentity
	File        string
	Path        string
	EventSource string
	EventTime   time.Time
}

// NewWebhookEvent builds an event for a detected file stamped with the delivery time
func NewWebhookEvent(entry FilePathInfo, now time.Time) WebhookEvent {
	return WebhookEvent{
		ID:          entry.ID,
		File:        entry.Name(),
		Path:        entry.Path,
		EventSource: EventSource,
		EventTime:   now.UTC(),
	}
}

// FormattedTime returns the event time in EventTimeLayout
func (e WebhookEvent) FormattedTime() string {
	return e.EventTime.UTC().Format(EventTimeLayout)
}

// FlatPayload is the flat webhook body
type FlatPayload struct {
	ID          string `json:"id"`
	File        string `json:"file"`
	Path        string `json:"path"`
	EventSource string `json:"eventSource"`
	EventTime   string `json:"eventTime"`
}

// RecordsPayload is the envelope body with a single record
type RecordsPayload struct {
	Key     string        `json:"Key"`
	Records []EventRecord `json:"Records"`
}

// EventRecord is one entry of RecordsPayload
type EventRecord struct {
	ObjectKey   string `json:"objectKey"`
	ObjectID    string `json:"objectId"`
	EventTime   string `json:"eventTime"`
	EventSource string `json:"eventSource"`
}

// Payload returns the body value for the requested format
func (e WebhookEvent) Payload(format PayloadFormat) interface{} {
	if format == PayloadFormatFlat {
		return FlatPayload{
			ID:          string(e.ID),
			File:        e.File,
			Path:        e.Path,
			EventSource: e.EventSource,
			EventTime:   e.FormattedTime(),
		}
	}
	return RecordsPayload{
		Key: e.Path,
		Records: []EventRecord{
			{
				ObjectKey:   e.File,
				ObjectID:    string(e.ID),
				EventTime:   e.FormattedTime(),
				EventSource: e.EventSource,
			},
		},
	}
}
