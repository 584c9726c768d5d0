package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oskarh/feedgate/internal/api/handler"
	"github.com/oskarh/feedgate/internal/api/middleware"
	"github.com/oskarh/feedgate/internal/feed"
	"github.com/oskarh/feedgate/internal/repository"
	"github.com/oskarh/feedgate/internal/service"
)

// RouterConfig carries the router-level settings.
type RouterConfig struct {
	Mode            string
	AllowedOrigins  []string
	AllowAllOrigins bool
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	cfg RouterConfig,
	db *gorm.DB,
	importService *service.ImportService,
	jobRepo *repository.ImportJobRepository,
	fetcher *feed.Fetcher,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		AllowAllOrigins: cfg.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(db)
	importHandler := handler.NewImportHandler(importService, jobRepo, fetcher)

	// Health checks
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Imports
		v1.POST("/imports", importHandler.CreateImport)
		v1.POST("/imports/mapping", importHandler.PreviewMapping)
		v1.GET("/imports", importHandler.ListImports)
		v1.GET("/imports/:id", importHandler.GetImport)
	}

	return r
}
