package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oskarh/feedgate/internal/feed"
	"github.com/oskarh/feedgate/internal/logger"
	"github.com/oskarh/feedgate/internal/repository"
	"github.com/oskarh/feedgate/internal/service"
	"gorm.io/gorm"
)

const defaultTenantID = "default"

// ImportHandler handles product feed import endpoints.
type ImportHandler struct {
	importService *service.ImportService
	jobs          *repository.ImportJobRepository
	fetcher       *feed.Fetcher
}

// NewImportHandler creates a new import handler.
// Parameters:
//   - importService: import pipeline service instance.
//   - jobs: import job repository for read endpoints.
//   - fetcher: feed fetcher for source-addressed imports.
// Returns:
//   - *ImportHandler: initialized handler.
func NewImportHandler(importService *service.ImportService, jobs *repository.ImportJobRepository, fetcher *feed.Fetcher) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		jobs:          jobs,
		fetcher:       fetcher,
	}
}

// importRequest is the JSON body for POST /api/v1/imports. Exactly one
// of rows, raw_text or source must carry the feed payload.
type importRequest struct {
	Headers       []string            `json:"headers"`
	Rows          []map[string]string `json:"rows"`
	RawText       string              `json:"raw_text"`
	Source        string              `json:"source"`
	ColumnMapping map[string]string   `json:"column_mapping"`
	Options       importOptions       `json:"options"`
}

type importOptions struct {
	BatchSize      int    `json:"batch_size"`
	SkipDuplicates bool   `json:"skip_duplicates"`
	UpdateExisting bool   `json:"update_existing"`
	DefaultStatus  string `json:"default_status"`
}

// mappingRequest is the JSON body for POST /api/v1/imports/mapping.
type mappingRequest struct {
	Headers       []string          `json:"headers"`
	ColumnMapping map[string]string `json:"column_mapping"`
}

// CreateImport handles POST /api/v1/imports.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ImportHandler) CreateImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	tenantID := tenantFrom(c)
	ctx = logger.SetTenantID(ctx, tenantID)

	rawText := req.RawText
	if req.Source != "" {
		if len(req.Rows) > 0 || rawText != "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Provide source, rows or raw_text, not a combination",
			})
			return
		}
		fetched, err := h.fetcher.Fetch(logger.SetFeed(ctx, req.Source), req.Source)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Failed to fetch feed: " + err.Error(),
			})
			return
		}
		rawText = fetched
	}

	result, err := h.importService.Run(ctx, tenantID, &service.ImportRequest{
		Headers:       req.Headers,
		Rows:          req.Rows,
		RawText:       rawText,
		ColumnMapping: req.ColumnMapping,
		Options: service.ImportOptions{
			BatchSize:      req.Options.BatchSize,
			SkipDuplicates: req.Options.SkipDuplicates,
			UpdateExisting: req.Options.UpdateExisting,
			DefaultStatus:  req.Options.DefaultStatus,
		},
	})
	if err != nil {
		var precondition *service.PreconditionError
		if errors.As(err, &precondition) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":          precondition.Reason,
				"missing_fields": precondition.MissingFields,
				"job_id":         precondition.JobID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Import failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// PreviewMapping handles POST /api/v1/imports/mapping. It runs column
// auto-mapping against the supplied headers without touching storage.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ImportHandler) PreviewMapping(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}
	if len(req.Headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Field 'headers' is required",
		})
		return
	}

	result, missing := h.importService.PreviewMapping(req.Headers, req.ColumnMapping)
	c.JSON(http.StatusOK, gin.H{
		"mappings":          result.Mappings,
		"unmatched_columns": result.Unmatched,
		"missing_required":  missing,
	})
}

// GetImport handles GET /api/v1/imports/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ImportHandler) GetImport(c *gin.Context) {
	jobID := c.Param("id")
	job, err := h.jobs.GetByID(c.Request.Context(), tenantFrom(c), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Import job not found: " + jobID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load import job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListImports handles GET /api/v1/imports.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ImportHandler) ListImports(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	jobs, err := h.jobs.ListByTenant(c.Request.Context(), tenantFrom(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list import jobs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func tenantFrom(c *gin.Context) string {
	if tenant := c.GetHeader("X-Tenant-ID"); tenant != "" {
		return tenant
	}
	return defaultTenantID
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
