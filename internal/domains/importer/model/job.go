package model

import (
	"time"
)

// Status is the import job lifecycle state.
// Transitions are one-directional; terminal states are never overwritten.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the state machine:
//
//	pending    → processing | cancelled
//	processing → completed | failed | cancelled
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	}
	return false
}

// Processing phases reported in current_step.
const (
	PhaseParsing    = "parsing"
	PhaseValidating = "validating"
	PhaseImporting  = "importing"
	PhaseCompleted  = "completed"
)

// RowError is one row-level failure kept on the job. Row numbering starts at
// 2 so it matches the file's visual line number (row 1 is the header).
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
	SKU   string `json:"sku,omitempty"`
}

// ImportJob tracks one CSV import attempt.
// Counters are monotonically non-decreasing and satisfy
// processed = created + updated + failed at every checkpoint.
type ImportJob struct {
	ID     int64  `json:"-" db:"id"`
	JobID  string `json:"job_id" db:"job_id"` // external UUID
	Status Status `json:"status" db:"status"`

	Filename string `json:"filename" db:"filename"`

	TotalRows     int `json:"total_rows" db:"total_rows"`
	ProcessedRows int `json:"processed_rows" db:"processed_rows"`
	CreatedRows   int `json:"created_rows" db:"created_rows"`
	UpdatedRows   int `json:"updated_rows" db:"updated_rows"`
	FailedRows    int `json:"failed_rows" db:"failed_rows"`

	CurrentStep        string     `json:"current_step" db:"current_step"`
	ProgressPercentage int        `json:"progress_percentage" db:"progress_percentage"`
	ErrorMessage       *string    `json:"error_message" db:"error_message"`
	Errors             []RowError `json:"errors" db:"errors"` // JSONB

	TaskID *string `json:"task_id" db:"task_id"` // asynq task id for tracing

	StartedAt   *time.Time `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
