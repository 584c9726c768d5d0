package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oskarh/feedgate/internal/catalog"
	"github.com/oskarh/feedgate/internal/domain"
	"github.com/oskarh/feedgate/internal/feed"
	"github.com/oskarh/feedgate/internal/logger"
	"github.com/oskarh/feedgate/internal/mapping"
)

// ProductStore is the product-side store surface the pipeline needs:
// bulk insert, conditional update by key, and the two duplicate
// lookups.
type ProductStore interface {
	BulkInsert(ctx context.Context, products []*domain.Product) error
	UpdateBySKU(ctx context.Context, tenantID string, product *domain.Product) error
	FindBySKUs(ctx context.Context, tenantID string, skus []string) ([]domain.Product, error)
	FindByNames(ctx context.Context, tenantID string, names []string) ([]domain.Product, error)
}

// JobStore is the import-job store surface used by the job tracker.
type JobStore interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	MarkRunning(ctx context.Context, jobID string, totalItems int, startedAt time.Time) error
	UpdateProgress(ctx context.Context, jobID string, processed, failed, progressPercent int) error
	Finalize(ctx context.Context, job *domain.ImportJob) error
}

// ImportOptions holds caller options for one import run. It is built
// once per request and never mutated mid-run.
type ImportOptions struct {
	BatchSize      int
	SkipDuplicates bool
	UpdateExisting bool
	DefaultStatus  string
}

// ImportRequest is one ingestion request: either pre-parsed rows (with
// an optional explicit header order) or raw delimited text.
type ImportRequest struct {
	Headers []string
	Rows    []map[string]string
	RawText string

	// ColumnMapping maps source columns to canonical fields; mapped
	// columns bypass auto-mapping entirely.
	ColumnMapping map[string]string
	Options       ImportOptions
}

// RowError is one reportable row-level problem.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportResult is the caller-visible outcome of one import run.
// SuccessCount + ErrorCount + SkippedCount always equals TotalRows for
// any run that got past its preconditions.
type ImportResult struct {
	Success      bool              `json:"success"`
	JobID        string            `json:"job_id"`
	TotalRows    int               `json:"total_rows"`
	SuccessCount int               `json:"success_count"`
	ErrorCount   int               `json:"error_count"`
	SkippedCount int               `json:"skipped_count"`
	DurationMs   int64             `json:"duration_ms"`
	Errors       []RowError        `json:"errors,omitempty"`
	Warnings     []RowError        `json:"warnings,omitempty"`
	Duplicates   []DuplicateMatch  `json:"duplicates,omitempty"`
	Mapping      []mapping.ColumnMapping `json:"mapping,omitempty"`
	Unmatched    []string          `json:"unmatched_columns,omitempty"`
}

// PreconditionError aborts a request before any catalog writes: empty
// input, unmapped required fields, or an unreachable store at job
// creation.
type PreconditionError struct {
	Reason        string
	MissingFields []string
	JobID         string
}

// Error implements the error interface.
// Parameters: none.
// Returns:
//   - string: human-readable reason.
func (e *PreconditionError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.MissingFields, ", "))
	}
	return e.Reason
}

// ImportConfig holds tuning knobs for the import service.
type ImportConfig struct {
	BatchSize         int
	MaxKeyLookup      int
	MaxNameLookup     int
	MaxReportedErrors int
}

// ImportService runs the full import pipeline: mapping, validation,
// duplicate detection, and chunked ingestion with job tracking.
type ImportService struct {
	products  ProductStore
	jobs      JobStore
	catalog   *catalog.Catalog
	mapper    *mapping.Mapper
	validator *Validator
	detector  *DuplicateDetector
	logger    *logger.Logger

	batchSize         int
	maxReportedErrors int
}

// NewImportService creates an ImportService.
// Parameters:
//   - products: product store.
//   - jobs: import job store.
//   - cat: canonical field catalog.
//   - mapper: header auto-mapper.
//   - log: logger instance.
//   - cfg: tuning configuration; nil uses defaults.
// Returns:
//   - *ImportService: service instance.
func NewImportService(
	products ProductStore,
	jobs JobStore,
	cat *catalog.Catalog,
	mapper *mapping.Mapper,
	log *logger.Logger,
	cfg *ImportConfig,
) *ImportService {
	if cfg == nil {
		cfg = &ImportConfig{}
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxErrors := cfg.MaxReportedErrors
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ImportService{
		products:          products,
		jobs:              jobs,
		catalog:           cat,
		mapper:            mapper,
		validator:         NewValidator(cat),
		detector:          NewDuplicateDetector(products, log, cfg.MaxKeyLookup, cfg.MaxNameLookup),
		logger:            log,
		batchSize:         batchSize,
		maxReportedErrors: maxErrors,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *ImportService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// PreviewMapping runs only the auto-mapper over a header list so the
// caller can review and correct the mapping before importing.
// Parameters:
//   - headers: raw source headers in column order.
//   - manual: optional caller overrides applied before heuristics.
// Returns:
//   - *mapping.Result: accepted mappings and unmatched headers.
//   - []string: required canonical fields left unmapped.
func (s *ImportService) PreviewMapping(headers []string, manual map[string]string) (*mapping.Result, []string) {
	res := s.mapper.Map(headers, manual)
	return res, mapping.MissingRequired(res, s.catalog)
}

// Run executes one import request end to end.
// Parameters:
//   - ctx: context; cancellation is honored between chunks.
//   - tenantID: opaque tenant the import runs under.
//   - req: ingestion request.
// Returns:
//   - *ImportResult: counts, capped error list, and job ID.
//   - error: *PreconditionError if the request was aborted before ingestion.
func (s *ImportService) Run(ctx context.Context, tenantID string, req *ImportRequest) (*ImportResult, error) {
	start := time.Now()

	headers, rows, err := resolveInput(req)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &PreconditionError{Reason: "no input rows"}
	}

	// The job record exists before any catalog writes.
	job := &domain.ImportJob{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Status:   domain.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, &PreconditionError{Reason: fmt.Sprintf("failed to create import job: %v", err)}
	}
	ctx = logger.SetJobID(ctx, job.ID)

	mapRes := s.mapper.Map(headers, req.ColumnMapping)
	if missing := mapping.MissingRequired(mapRes, s.catalog); len(missing) > 0 {
		s.failJob(ctx, job, start, fmt.Sprintf("unmapped required fields: %s", strings.Join(missing, ", ")))
		return nil, &PreconditionError{
			Reason:        "unmapped required fields",
			MissingFields: missing,
			JobID:         job.ID,
		}
	}

	result := &ImportResult{
		JobID:     job.ID,
		TotalRows: len(rows),
		Mapping:   mapRes.Mappings,
		Unmatched: mapRes.Unmatched,
	}

	// Validate every row; blocked rows are counted, never fatal.
	var candidates []Candidate
	for i, row := range rows {
		candidate, findings := s.validator.ValidateRow(i+1, row, mapRes.Mappings)
		for _, f := range findings {
			re := RowError{Row: f.RowNumber, Field: f.Field, Message: f.Message}
			if f.Severity == SeverityWarning {
				if len(result.Warnings) < s.maxReportedErrors {
					result.Warnings = append(result.Warnings, re)
				}
				continue
			}
			if len(result.Errors) < s.maxReportedErrors {
				result.Errors = append(result.Errors, re)
			}
		}
		if candidate == nil {
			result.ErrorCount++
			continue
		}
		candidates = append(candidates, *candidate)
	}

	accepted, matches, err := s.detector.Detect(ctx, tenantID, candidates, req.Options.SkipDuplicates)
	if err != nil {
		s.failJob(ctx, job, start, fmt.Sprintf("duplicate lookup failed: %v", err))
		return nil, &PreconditionError{Reason: "catalog store unreachable", JobID: job.ID}
	}
	result.Duplicates = matches
	result.SkippedCount = len(candidates) - len(accepted)

	if len(accepted) == 0 {
		s.failJob(ctx, job, start, "no importable rows")
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	ingested := s.ingest(ctx, tenantID, job, accepted, matches, &req.Options)

	result.SuccessCount = ingested.succeeded
	result.ErrorCount += ingested.failed + ingested.unattempted
	for _, re := range ingested.errors {
		if len(result.Errors) < s.maxReportedErrors {
			result.Errors = append(result.Errors, re)
		}
	}
	result.DurationMs = time.Since(start).Milliseconds()
	result.Success = result.SuccessCount > 0

	// Audit record for the run.
	logger.With(logger.Fields{
		logger.FieldDurationMs: result.DurationMs,
		"total":                result.TotalRows,
		"succeeded":            result.SuccessCount,
		"failed":               result.ErrorCount,
		"skipped_as_duplicate": result.SkippedCount,
	}).Info(ctx, "Import completed: tenant=%s, job=%s", tenantID, job.ID)

	return result, nil
}

// ingestOutcome accumulates the counters of the chunked write phase.
type ingestOutcome struct {
	succeeded   int
	failed      int
	unattempted int
	errors      []RowError
}

// ingest writes accepted candidates in order, in bounded chunks, and
// keeps the job's progress counters current after every chunk.
func (s *ImportService) ingest(
	ctx context.Context,
	tenantID string,
	job *domain.ImportJob,
	accepted []Candidate,
	matches []DuplicateMatch,
	opts *ImportOptions,
) *ingestOutcome {
	total := len(accepted)
	startedAt := time.Now()
	if err := s.jobs.MarkRunning(ctx, job.ID, total, startedAt); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to mark job running")
	}
	job.Status = domain.JobStatusRunning
	job.TotalItems = total

	// Key-matched rows are routed to update when the caller asked for it.
	existingByRow := make(map[int]string)
	for _, m := range matches {
		if m.MatchType == MatchTypeKey {
			existingByRow[m.SourceRowNumber] = m.ExistingID
		}
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	out := &ingestOutcome{}
	processed := 0

	for start := 0; start < total; start += batchSize {
		// Cooperative cancellation between chunks only.
		if ctx.Err() != nil {
			out.unattempted = total - processed
			s.log(ctx).WithField("remaining", out.unattempted).Warn("Import cancelled")
			break
		}

		end := start + batchSize
		if end > total {
			end = total
		}
		chunk := accepted[start:end]

		var inserts []*domain.Product
		var insertRows []int
		for _, c := range chunk {
			if _, isDup := existingByRow[c.RowNumber]; isDup && opts.UpdateExisting {
				product := s.toProduct(tenantID, &c, opts.DefaultStatus)
				if err := s.products.UpdateBySKU(ctx, tenantID, product); err != nil {
					out.failed++
					out.errors = append(out.errors, RowError{
						Row:     c.RowNumber,
						Message: fmt.Sprintf("update failed: %v", err),
					})
				} else {
					out.succeeded++
				}
				continue
			}
			inserts = append(inserts, s.toProduct(tenantID, &c, opts.DefaultStatus))
			insertRows = append(insertRows, c.RowNumber)
		}

		if len(inserts) > 0 {
			if err := s.products.BulkInsert(ctx, inserts); err != nil {
				// A rejected chunk fails its rows and the job moves on.
				out.failed += len(inserts)
				s.log(ctx).WithError(err).WithField("rows", len(inserts)).Error("Batch insert failed")
				for _, row := range insertRows {
					out.errors = append(out.errors, RowError{
						Row:     row,
						Message: fmt.Sprintf("insert failed: %v", err),
					})
				}
			} else {
				out.succeeded += len(inserts)
			}
		}

		processed += len(chunk)
		percent := int(math.Round(float64(processed) / float64(total) * 100))
		if err := s.jobs.UpdateProgress(ctx, job.ID, processed, out.failed, percent); err != nil {
			s.log(ctx).WithError(err).Warn("Failed to persist job progress")
		}
		job.ProcessedItems = processed
		job.FailedItems = out.failed
		job.ProgressPercent = percent
	}

	s.finalize(ctx, job, startedAt, out)
	return out
}

// finalize sets the terminal status from the aggregate outcome.
func (s *ImportService) finalize(ctx context.Context, job *domain.ImportJob, startedAt time.Time, out *ingestOutcome) {
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.DurationMs = completedAt.Sub(startedAt).Milliseconds()

	failedTotal := out.failed + out.unattempted
	switch {
	case failedTotal >= job.TotalItems:
		job.Status = domain.JobStatusFailed
		job.ErrorSummary = "no records were imported"
	case failedTotal > 0:
		job.Status = domain.JobStatusCompletedWithErrors
		job.ErrorSummary = fmt.Sprintf("%d of %d records failed", failedTotal, job.TotalItems)
	default:
		job.Status = domain.JobStatusCompleted
	}
	job.FailedItems = failedTotal

	if err := s.jobs.Finalize(ctx, job); err != nil {
		s.log(ctx).WithError(err).Error("Failed to finalize import job")
	}
}

// failJob finalizes a job as failed before any ingestion happened.
func (s *ImportService) failJob(ctx context.Context, job *domain.ImportJob, startedAt time.Time, summary string) {
	completedAt := time.Now()
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &completedAt
	job.DurationMs = completedAt.Sub(startedAt).Milliseconds()
	job.ErrorSummary = summary
	if err := s.jobs.Finalize(ctx, job); err != nil {
		s.log(ctx).WithError(err).Error("Failed to finalize import job")
	}
}

// toProduct converts a candidate into a catalog record for the tenant.
func (s *ImportService) toProduct(tenantID string, c *Candidate, defaultStatus string) *domain.Product {
	status := domain.ProductStatus(defaultStatus)
	if status == "" {
		status = domain.ProductStatusDraft
	}
	return &domain.Product{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		Name:           c.Name,
		Description:    c.Description,
		SKU:            c.SKU,
		Category:       c.Category,
		Brand:          c.Brand,
		ImageURL:       c.ImageURL,
		Tags:           c.Tags,
		Price:          c.Price,
		CompareAtPrice: c.CompareAtPrice,
		Weight:         c.Weight,
		StockQuantity:  c.StockQuantity,
		Status:         status,
	}
}

// resolveInput produces the ordered header list and rows from either
// request form. Pre-parsed rows without an explicit header order fall
// back to the first row's keys sorted lexicographically so mapping
// stays deterministic.
func resolveInput(req *ImportRequest) ([]string, []map[string]string, error) {
	if req.RawText != "" {
		headers, rows, err := feed.Decode(req.RawText, 0)
		if err != nil {
			return nil, nil, &PreconditionError{Reason: err.Error()}
		}
		return headers, rows, nil
	}

	if len(req.Rows) == 0 {
		return nil, nil, nil
	}
	headers := req.Headers
	if len(headers) == 0 {
		headers = sortedKeys(req.Rows[0])
	}
	return headers, req.Rows, nil
}

func sortedKeys(row map[string]string) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
