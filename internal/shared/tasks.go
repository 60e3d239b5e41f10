package shared

import "encoding/json"

// Task type names registered on the asynq mux.
const (
	TypeImportCSV      = "import:csv"
	TypeDeliverWebhook = "webhook:deliver"
	TypeCleanupJobs    = "jobs:cleanup_terminal"
)

// Queue names with their worker priorities configured in cmd/worker.
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// ImportCSVPayload is the payload for an import:csv task.
type ImportCSVPayload struct {
	JobID    string `json:"job_id"`
	Filepath string `json:"filepath"`
}

// DeliverWebhookPayload is the payload for a webhook:deliver task.
// One task per (subscription, event); retries reuse the same payload.
type DeliverWebhookPayload struct {
	WebhookID int64           `json:"webhook_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// CleanupJobsPayload is the payload for the periodic jobs:cleanup_terminal task.
type CleanupJobsPayload struct {
	OlderThanDays int `json:"older_than_days"`
}
