package domain

import "time"

// JobStatus represents the status of an import job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted,
// JobStatusCompletedWithErrors, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending             JobStatus = "pending"
	JobStatusRunning             JobStatus = "running"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCompletedWithErrors JobStatus = "completed_with_errors"
	JobStatusFailed              JobStatus = "failed"
)

// Terminal reports whether the status is a terminal job state.
// Parameters: none.
// Returns:
//   - bool: true if no further transition is allowed.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCompletedWithErrors, JobStatusFailed:
		return true
	}
	return false
}

// ImportJob represents one product import run and its progress metadata.
// Counters only ever increase while the job is running; a terminal status
// is set exactly once.
type ImportJob struct {
	ID              string     `gorm:"type:text;primaryKey" json:"id"`
	TenantID        string     `gorm:"type:text;not null;index" json:"tenant_id"`
	Status          JobStatus  `gorm:"type:text;default:pending" json:"status"`
	TotalItems      int        `gorm:"default:0" json:"total_items"`
	ProcessedItems  int        `gorm:"default:0" json:"processed_items"`
	FailedItems     int        `gorm:"default:0" json:"failed_items"`
	ProgressPercent int        `gorm:"default:0" json:"progress_percent"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationMs      int64      `gorm:"default:0" json:"duration_ms"`
	ErrorSummary    string     `json:"error_summary,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ImportJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ImportJob) TableName() string {
	return "import_jobs"
}
