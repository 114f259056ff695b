package models

// ParquetDetectedEvent is the archive row written for every newly detected file.
// Optional fields use pointers with the ',optional' tag.
type ParquetDetectedEvent struct {
	RunID           string  `parquet:"run_id"`
	Cycle           int64   `parquet:"cycle"`
	ObjectID        string  `parquet:"object_id"`
	Path            string  `parquet:"path"`
	FileName        string  `parquet:"file_name"`
	DetectedAt      int64   `parquet:"detected_at"` // unix millis
	WebhookURL      *string `parquet:"webhook_url,optional"`
	DeliveryID      *string `parquet:"delivery_id,optional"`
	StatusCode      *int32  `parquet:"status_code,optional"`
	DeliveryError   *string `parquet:"delivery_error,optional"`
	DeliveryMillis  *int64  `parquet:"delivery_millis,optional"`
	DeliverySuccess bool    `parquet:"delivery_success"`
}
