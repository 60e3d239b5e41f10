package model

// ProgressEvent is published on the job's Redis channel at every checkpoint
// so a live-status UI can follow the import without polling.
// Errors carries at most the 10 most recent row errors.
type ProgressEvent struct {
	JobID              string     `json:"job_id"`
	CurrentStep        string     `json:"current_step"`
	ProcessedRows      int        `json:"processed_rows"`
	CreatedRows        int        `json:"created_rows"`
	UpdatedRows        int        `json:"updated_rows"`
	FailedRows         int        `json:"failed_rows"`
	TotalRows          int        `json:"total_rows"`
	ProgressPercentage int        `json:"progress_percentage"`
	Errors             []RowError `json:"errors"`
}
