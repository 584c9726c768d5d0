package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/oskarh/feedgate/internal/domain"
	"gorm.io/gorm"
)

// ImportJobRepository handles import job persistence.
type ImportJobRepository struct {
	db *gorm.DB
}

// NewImportJobRepository creates a new ImportJobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ImportJobRepository: repository instance bound to db.
func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create inserts a new import job record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// MarkRunning transitions a job to running and stamps its start time
// and total item count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job to update.
//   - totalItems: number of candidate records the job will process.
//   - startedAt: job start timestamp.
// Returns:
//   - error: non-nil if the update fails.
func (r *ImportJobRepository) MarkRunning(ctx context.Context, jobID string, totalItems int, startedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":      domain.JobStatusRunning,
			"total_items": totalItems,
			"started_at":  startedAt,
		}).Error
}

// UpdateProgress persists running counters after a chunk. Counters are
// cumulative and must never decrease; the write is committed before the
// next chunk starts so pollers see monotonic progress.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job to update.
//   - processed: cumulative rows attempted so far.
//   - failed: cumulative rows failed so far.
//   - progressPercent: rounded processed/total percentage.
// Returns:
//   - error: non-nil if the update fails.
func (r *ImportJobRepository) UpdateProgress(ctx context.Context, jobID string, processed, failed, progressPercent int) error {
	return r.db.WithContext(ctx).
		Model(&domain.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"processed_items":  processed,
			"failed_items":     failed,
			"progress_percent": progressPercent,
		}).Error
}

// Finalize sets the terminal status of a job exactly once. Jobs already
// in a terminal state are left untouched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job carrying the terminal status, counters, and timings.
// Returns:
//   - error: non-nil if the update fails.
func (r *ImportJobRepository) Finalize(ctx context.Context, job *domain.ImportJob) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ImportJob{}).
		Where("id = ? AND status NOT IN ?", job.ID, []domain.JobStatus{
			domain.JobStatusCompleted,
			domain.JobStatusCompletedWithErrors,
			domain.JobStatusFailed,
		}).
		Updates(map[string]interface{}{
			"status":           job.Status,
			"processed_items":  job.ProcessedItems,
			"failed_items":     job.FailedItems,
			"progress_percent": job.ProgressPercent,
			"completed_at":     job.CompletedAt,
			"duration_ms":      job.DurationMs,
			"error_summary":    job.ErrorSummary,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s already finalized", job.ID)
	}
	return nil
}

// GetByID retrieves an import job by ID, scoped to a tenant.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tenantID: owning tenant.
//   - id: job ID.
// Returns:
//   - *domain.ImportJob: job record if found.
//   - error: non-nil if lookup fails.
func (r *ImportJobRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.ImportJob, error) {
	var job domain.ImportJob
	if err := r.db.WithContext(ctx).
		First(&job, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByTenant retrieves a tenant's import jobs, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tenantID: owning tenant.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.ImportJob: matching job records.
//   - error: non-nil if the query fails.
func (r *ImportJobRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]domain.ImportJob, error) {
	var jobs []domain.ImportJob
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
