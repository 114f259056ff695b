package models

import "time"

// DeliveryResult is the outcome of one webhook invocation
type DeliveryResult struct {
	DeliveryID  string
	Event       WebhookEvent
	WebhookURL  string
	StatusCode  int
	Duration    time.Duration
	Err         error
	DeliveredAt time.Time
}

// Succeeded reports whether the webhook answered with a 2xx status
func (r DeliveryResult) Succeeded() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// CycleReport summarises a successful cycle for observers
type CycleReport struct {
	RunID      string
	Cycle      int
	Bootstrap  bool
	StartedAt  time.Time
	FinishedAt time.Time
	FilesSeen  int
	NewFiles   []FilePathInfo
	Deliveries []DeliveryResult
}

// Duration returns the wall time of the cycle
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CycleFailure describes an aborted cycle attempt
type CycleFailure struct {
	RunID     string
	Cycle     int
	Bootstrap bool
	Attempt   int
	StartedAt time.Time
	FailedAt  time.Time
	Err       error
}
